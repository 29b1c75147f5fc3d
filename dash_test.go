package dashd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDashMockMode(t *testing.T) {
	cfg := defaultConfig()
	cfg.Control.Listen = "127.0.0.1:0"
	d := New(&cfg)
	d.SetMockMode(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- d.Start(ctx)
	}()

	// Both mock devices run the real encode/decode paths, so values
	// from both channels should land in the aggregator.
	assert.Eventually(t, func() bool {
		snap := d.Aggregator.Snapshot(time.Now())
		_, serial := snap.Fields[FieldRPM]
		_, wireless := snap.Fields[FieldLatitude]
		return serial && wireless
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestNewAppliesStaleTimeouts(t *testing.T) {
	cfg := defaultConfig()
	cfg.Serial.StaleTimeout = duration{100 * time.Millisecond}
	cfg.RaceBox.StaleTimeout = duration{5 * time.Second}
	d := New(&cfg)

	base := time.Now()
	d.Aggregator.ApplyReading(FieldRPM, 3000, base)
	d.Aggregator.ApplyReading(FieldGForceX, 0.5, base)

	snap := d.Aggregator.Snapshot(base.Add(time.Second))
	assert.True(t, snap.Fields[FieldRPM].Stale)
	assert.False(t, snap.Fields[FieldGForceX].Stale)
}
