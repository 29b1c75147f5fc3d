package dashd

import (
	"sync"
	"time"

	"github.com/jd3nn1s/dashd/racebox"
)

const DefaultStaleTimeout = 2 * time.Second

type field struct {
	value     float64
	updatedAt time.Time
}

// Aggregator owns the canonical telemetry state. The ingestion tasks and
// the control listener mutate it concurrently through its methods; the
// renderer reads it through Snapshot. Nothing else ever holds a reference
// to its internals.
type Aggregator struct {
	mu          sync.Mutex
	fields      map[FieldID]field
	driveMode   DriveMode
	colorScheme ColorScheme
	errors      map[Channel]ChannelError
	staleAfter  map[Channel]time.Duration
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		fields:      make(map[FieldID]field),
		driveMode:   ModeRoad,
		colorScheme: SchemeDark,
		errors:      make(map[Channel]ChannelError),
		staleAfter: map[Channel]time.Duration{
			ChannelSerial:  DefaultStaleTimeout,
			ChannelRaceBox: DefaultStaleTimeout,
		},
	}
}

// SetStaleTimeout overrides the freshness window for one channel.
func (a *Aggregator) SetStaleTimeout(ch Channel, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.staleAfter[ch] = d
}

// ApplyReading upserts a single field. The highest timestamp wins
// regardless of call order; an equal timestamp overwrites, so later
// duplicate entries within one frame supersede earlier ones.
func (a *Aggregator) ApplyReading(id FieldID, value float64, ts time.Time) {
	a.ApplyUpdates([]FieldUpdate{{ID: id, Value: value}}, ts)
}

// ApplyUpdates upserts a batch of fields atomically: a concurrent
// Snapshot sees either none or all of the batch.
func (a *Aggregator) ApplyUpdates(updates []FieldUpdate, ts time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range updates {
		a.applyLocked(u.ID, u.Value, ts)
	}
}

func (a *Aggregator) applyLocked(id FieldID, value float64, ts time.Time) {
	if cur, ok := a.fields[id]; ok && cur.updatedAt.After(ts) {
		return
	}
	a.fields[id] = field{value: value, updatedAt: ts}
}

// ApplyRaceBoxRecord decomposes a wireless record into the shared
// per-field upsert path, as one atomic batch. Inertial fields are always
// applied; position fields only once the receiver has a fix, so a parked
// car indoors still shows live G-forces without a bogus position.
func (a *Aggregator) ApplyRaceBoxRecord(rec *racebox.Record, ts time.Time) {
	updates := []FieldUpdate{
		{ID: FieldGForceX, Value: rec.GForceX},
		{ID: FieldGForceY, Value: rec.GForceY},
		{ID: FieldGForceZ, Value: rec.GForceZ},
		{ID: FieldRotationRateX, Value: rec.RotationRateX},
		{ID: FieldRotationRateY, Value: rec.RotationRateY},
		{ID: FieldRotationRateZ, Value: rec.RotationRateZ},
		{ID: FieldNumSatellites, Value: float64(rec.NumSatellites)},
		{ID: FieldLapTimestamp, Value: float64(rec.TimestampMillis)},
	}
	if rec.FixOK {
		updates = append(updates,
			FieldUpdate{ID: FieldLatitude, Value: rec.Latitude},
			FieldUpdate{ID: FieldLongitude, Value: rec.Longitude},
			FieldUpdate{ID: FieldWGSAltitude, Value: rec.WGSAltitude},
			FieldUpdate{ID: FieldMSLAltitude, Value: rec.MSLAltitude},
			FieldUpdate{ID: FieldGPSSpeed, Value: rec.SpeedKPH},
			FieldUpdate{ID: FieldHeading, Value: rec.HeadingDegrees},
			FieldUpdate{ID: FieldPDOP, Value: rec.PDOP},
		)
	}
	a.ApplyUpdates(updates, ts)
}

func (a *Aggregator) SetDriveMode(m DriveMode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.driveMode = m
}

func (a *Aggregator) SetColorScheme(s ColorScheme) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.colorScheme = s
}

// SetChannelError records an ingestion failure so the renderer can show
// link state alongside the (possibly stale) data.
func (a *Aggregator) SetChannelError(ch Channel, msg string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors[ch] = ChannelError{Message: msg, At: at}
}

// ClearChannelError removes a channel's error once data flows again.
func (a *Aggregator) ClearChannelError(ch Channel) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.errors, ch)
}

// Snapshot returns a consistent copy of the state. Staleness is evaluated
// here, at read time, against each field's channel timeout; no background
// sweeper runs.
func (a *Aggregator) Snapshot(now time.Time) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Fields:      make(map[FieldID]FieldView, len(a.fields)),
		DriveMode:   a.driveMode,
		ColorScheme: a.colorScheme,
		Errors:      make(map[Channel]ChannelError, len(a.errors)),
	}
	for id, f := range a.fields {
		snap.Fields[id] = FieldView{
			Value:     f.value,
			UpdatedAt: f.updatedAt,
			Stale:     now.Sub(f.updatedAt) > a.staleAfter[id.Channel()],
		}
	}
	for ch, e := range a.errors {
		snap.Errors[ch] = e
	}
	return snap
}
