package dashd

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jd3nn1s/dashd/esplink"
)

// to allow testing
var serialConnect = func(portName string, baudRate int) (SerialLink, error) {
	return esplink.Connect(portName, baudRate)
}

var now = time.Now

type serialRetryable struct {
	agg      *Aggregator
	portName string
	baudRate int
	connect  func(string, int) (SerialLink, error)
	c        SerialLink
}

func (s *serialRetryable) Name() string {
	return "esplink"
}

func (s *serialRetryable) Open() error {
	connect := s.connect
	if connect == nil {
		connect = serialConnect
	}
	c, err := connect(s.portName, s.baudRate)
	s.c = c
	return err
}

func (s *serialRetryable) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

func (s *serialRetryable) Start(ctx context.Context) error {
	err := s.c.Start(ctx, esplink.Callbacks{
		Frame: s.handleFrame,
	})
	if err != nil && ctx.Err() == nil {
		s.agg.SetChannelError(ChannelSerial, err.Error(), now())
	}
	stats := s.c.Stats()
	log.WithField("frames", stats.Frames).
		WithField("crcErrors", stats.ChecksumErrors).
		WithField("framingErrors", stats.FramingErrors).
		Info("esplink connection ended")
	return err
}

// handleFrame applies one frame's readings as a single atomic batch, in
// entry order so later duplicate IDs win.
func (s *serialRetryable) handleFrame(f esplink.Frame) {
	readings := esplink.ReadingsFromEntries(f.Entries)
	if len(readings) == 0 {
		return
	}
	updates := make([]FieldUpdate, 0, len(readings))
	for _, r := range readings {
		updates = append(updates, FieldUpdate{ID: FieldID(r.ID), Value: r.Value})
	}
	s.agg.ApplyUpdates(updates, now())
	s.agg.ClearChannelError(ChannelSerial)
}

func runSerial(ctx context.Context, agg *Aggregator, portName string, baudRate int) {
	err := retry(ctx, &serialRetryable{
		agg:      agg,
		portName: portName,
		baudRate: baudRate,
	})
	if err != nil {
		log.Errorf("esplink done: %v", err)
	}
}
