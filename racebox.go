package dashd

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jd3nn1s/dashd/racebox"
)

type raceboxRetryable struct {
	agg     *Aggregator
	connect NotificationSourceFactory
	src     NotificationSource

	payloadsTooShort uint64
	unknownMessages  uint64
}

func (r *raceboxRetryable) Name() string {
	return "racebox"
}

func (r *raceboxRetryable) Open() error {
	src, err := r.connect()
	r.src = src
	return err
}

func (r *raceboxRetryable) Close() error {
	if r.src == nil {
		return nil
	}
	return r.src.Close()
}

func (r *raceboxRetryable) Start(ctx context.Context) error {
	err := r.src.Start(ctx, r.handlePayload)
	if err != nil && ctx.Err() == nil {
		r.agg.SetChannelError(ChannelRaceBox, err.Error(), now())
	}
	return err
}

// handlePayload decodes one notification. Truncated payloads and unknown
// message classes are counted and skipped; the stream keeps flowing.
func (r *raceboxRetryable) handlePayload(payload []byte) {
	rec, err := racebox.Parse(payload)
	switch errors.Cause(err) {
	case nil:
	case racebox.ErrUnknownMessage:
		r.unknownMessages++
		log.WithField("len", len(payload)).Debug("racebox: skipping unknown message")
		return
	case racebox.ErrPayloadTooShort:
		r.payloadsTooShort++
		log.WithField("len", len(payload)).Warn("racebox: discarding short payload")
		return
	default:
		log.WithField("err", err).Warn("racebox: discarding payload")
		return
	}

	r.agg.ApplyRaceBoxRecord(rec, now())
	r.agg.ClearChannelError(ChannelRaceBox)
}

func runRaceBox(ctx context.Context, agg *Aggregator, connect NotificationSourceFactory) {
	err := retry(ctx, &raceboxRetryable{
		agg:     agg,
		connect: connect,
	})
	if err != nil {
		log.Errorf("racebox done: %v", err)
	}
}
