package dashd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Dash wires the ingestion tasks, the control channel and the aggregator
// together. The renderer (or anything else) polls Aggregator.Snapshot on
// its own cadence; nothing here ever calls into it.
type Dash struct {
	Aggregator *Aggregator

	cfg            *Config
	mock           bool
	raceboxConnect NotificationSourceFactory
}

func New(cfg *Config) *Dash {
	agg := NewAggregator()
	agg.SetStaleTimeout(ChannelSerial, cfg.Serial.StaleTimeout.Duration)
	agg.SetStaleTimeout(ChannelRaceBox, cfg.RaceBox.StaleTimeout.Duration)
	return &Dash{
		Aggregator: agg,
		cfg:        cfg,
	}
}

// SetMockMode replaces both devices with synthetic ones that generate
// oscillating telemetry through the real encode and decode paths.
func (d *Dash) SetMockMode(mock bool) {
	d.mock = mock
}

// SetRaceBoxSource injects the wireless transport. Without one (and
// outside mock mode) the wireless channel stays quiet; the dashboard
// still runs on serial data alone.
func (d *Dash) SetRaceBoxSource(connect NotificationSourceFactory) {
	d.raceboxConnect = connect
}

// Start runs all ingestion tasks until the context is cancelled. A
// failure of one task never tears down the others: device tasks
// reconnect forever, and a control listener failure only ends the
// control task.
func (d *Dash) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := runControl(ctx, d.Aggregator, d.cfg.Control.Listen); err != nil && ctx.Err() == nil {
			log.Errorf("control channel done: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		if d.mock {
			runMockSerial(ctx, d.Aggregator, d.cfg.Serial.Port, d.cfg.Serial.Baud)
		} else {
			runSerial(ctx, d.Aggregator, d.cfg.Serial.Port, d.cfg.Serial.Baud)
		}
		return nil
	})

	raceboxConnect := d.raceboxConnect
	if d.mock {
		raceboxConnect = mockRaceBoxSource
	}
	if raceboxConnect != nil {
		g.Go(func() error {
			runRaceBox(ctx, d.Aggregator, raceboxConnect)
			return nil
		})
	} else {
		log.Warn("no racebox source configured, wireless channel disabled")
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
