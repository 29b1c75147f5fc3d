package dashd

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jd3nn1s/dashd/racebox"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestDefaults(t *testing.T) {
	agg := NewAggregator()
	snap := agg.Snapshot(t0)
	assert.Equal(t, ModeRoad, snap.DriveMode)
	assert.Equal(t, SchemeDark, snap.ColorScheme)
	assert.Empty(t, snap.Fields)
	assert.Empty(t, snap.Errors)
}

func TestLastWriteWins(t *testing.T) {
	agg := NewAggregator()
	agg.ApplyReading(FieldRPM, 3000, t0.Add(1*time.Second))
	agg.ApplyReading(FieldRPM, 3200, t0.Add(2*time.Second))
	// late arrival with an older timestamp must not win
	agg.ApplyReading(FieldRPM, 3100, t0.Add(1500*time.Millisecond))

	snap := agg.Snapshot(t0.Add(2 * time.Second))
	assert.Equal(t, 3200.0, snap.Fields[FieldRPM].Value)
	assert.Equal(t, t0.Add(2*time.Second), snap.Fields[FieldRPM].UpdatedAt)
}

func TestEqualTimestampOverwrites(t *testing.T) {
	// duplicate IDs within one frame share a timestamp; the later entry
	// must supersede the earlier one
	agg := NewAggregator()
	agg.ApplyUpdates([]FieldUpdate{
		{ID: FieldRPM, Value: 3000},
		{ID: FieldRPM, Value: 3200},
	}, t0)
	assert.Equal(t, 3200.0, agg.Snapshot(t0).Fields[FieldRPM].Value)
}

func TestStaleness(t *testing.T) {
	agg := NewAggregator()
	agg.SetStaleTimeout(ChannelSerial, 2*time.Second)
	agg.ApplyReading(FieldSpeed, 150, t0)

	snap := agg.Snapshot(t0.Add(1 * time.Second))
	assert.False(t, snap.Fields[FieldSpeed].Stale)

	snap = agg.Snapshot(t0.Add(3 * time.Second))
	require.Contains(t, snap.Fields, FieldSpeed)
	assert.True(t, snap.Fields[FieldSpeed].Stale)
	// value is retained, only flagged
	assert.Equal(t, 150.0, snap.Fields[FieldSpeed].Value)
}

func TestPerChannelStaleTimeouts(t *testing.T) {
	agg := NewAggregator()
	agg.SetStaleTimeout(ChannelSerial, time.Second)
	agg.SetStaleTimeout(ChannelRaceBox, 10*time.Second)

	agg.ApplyReading(FieldSpeed, 100, t0)
	agg.ApplyReading(FieldGPSSpeed, 101, t0)

	snap := agg.Snapshot(t0.Add(5 * time.Second))
	assert.True(t, snap.Fields[FieldSpeed].Stale)
	assert.False(t, snap.Fields[FieldGPSSpeed].Stale)
}

func TestApplyRaceBoxRecord(t *testing.T) {
	agg := NewAggregator()
	agg.ApplyRaceBoxRecord(&racebox.Record{
		TimestampMillis: 123456,
		FixOK:           true,
		NumSatellites:   12,
		Latitude:        48.1,
		Longitude:       11.6,
		SpeedKPH:        120.5,
		HeadingDegrees:  270.0,
		GForceX:         -0.5,
		GForceY:         1.0,
		GForceZ:         0.98,
		RotationRateZ:   -12.5,
		PDOP:            1.2,
	}, t0)

	snap := agg.Snapshot(t0)
	assert.Equal(t, 48.1, snap.Fields[FieldLatitude].Value)
	assert.Equal(t, 11.6, snap.Fields[FieldLongitude].Value)
	assert.Equal(t, 120.5, snap.Fields[FieldGPSSpeed].Value)
	assert.Equal(t, 270.0, snap.Fields[FieldHeading].Value)
	assert.Equal(t, -0.5, snap.Fields[FieldGForceX].Value)
	assert.Equal(t, -12.5, snap.Fields[FieldRotationRateZ].Value)
	assert.Equal(t, 12.0, snap.Fields[FieldNumSatellites].Value)
	assert.Equal(t, 123456.0, snap.Fields[FieldLapTimestamp].Value)
}

func TestApplyRaceBoxRecordNoFix(t *testing.T) {
	agg := NewAggregator()
	agg.ApplyRaceBoxRecord(&racebox.Record{
		Latitude: 48.1,
		GForceX:  0.8,
	}, t0)

	snap := agg.Snapshot(t0)
	// inertial data is valid without a fix, position is not
	assert.Equal(t, 0.8, snap.Fields[FieldGForceX].Value)
	assert.NotContains(t, snap.Fields, FieldLatitude)
}

func TestModeAndScheme(t *testing.T) {
	agg := NewAggregator()
	agg.SetDriveMode(ModeTrack)
	agg.SetColorScheme(SchemeLight)

	snap := agg.Snapshot(t0)
	assert.Equal(t, ModeTrack, snap.DriveMode)
	assert.Equal(t, SchemeLight, snap.ColorScheme)
}

func TestChannelErrors(t *testing.T) {
	agg := NewAggregator()
	agg.SetChannelError(ChannelSerial, "read /dev/ttyAMA0: input/output error", t0)

	snap := agg.Snapshot(t0)
	require.Contains(t, snap.Errors, ChannelSerial)
	assert.Equal(t, t0, snap.Errors[ChannelSerial].At)

	agg.ClearChannelError(ChannelSerial)
	assert.Empty(t, agg.Snapshot(t0).Errors)
}

func TestSnapshotIsACopy(t *testing.T) {
	agg := NewAggregator()
	agg.ApplyReading(FieldRPM, 3000, t0)

	snap := agg.Snapshot(t0)
	snap.Fields[FieldRPM] = FieldView{Value: 9999}

	assert.Equal(t, 3000.0, agg.Snapshot(t0).Fields[FieldRPM].Value)
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			agg.ApplyUpdates([]FieldUpdate{
				{ID: FieldRPM, Value: float64(i)},
				{ID: FieldSpeed, Value: float64(i)},
			}, t0.Add(time.Duration(i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			agg.ApplyRaceBoxRecord(&racebox.Record{SpeedKPH: float64(i)}, t0.Add(time.Duration(i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			agg.SetDriveMode(ModeTrack)
			agg.SetColorScheme(SchemeLight)
		}
	}()

	// reader polls on its own cadence, batches must never tear
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			snap := agg.Snapshot(t0.Add(time.Hour))
			rpm, okRPM := snap.Fields[FieldRPM]
			speed, okSpeed := snap.Fields[FieldSpeed]
			if okRPM != okSpeed {
				t.Error("saw a torn batch")
				return
			}
			if okRPM && rpm.Value != speed.Value {
				t.Errorf("saw a torn batch: rpm=%v speed=%v", rpm.Value, speed.Value)
				return
			}
		}
	}()

	wg.Wait()
	close(done)
}
