// Package dashd aggregates vehicle telemetry from the ESP32 sensor node
// and the RaceBox wireless unit into one always-current snapshot that a
// dashboard renderer polls on its own cadence.
package dashd

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jd3nn1s/dashd/esplink"
)

// FieldID identifies one telemetry field in the snapshot. Serial-link
// fields reuse their wire sensor IDs; wireless fields live in a disjoint
// range so the two sources can never collide.
type FieldID uint8

const (
	FieldFuelLevel     = FieldID(esplink.SensorFuelLevel)
	FieldOilPressure   = FieldID(esplink.SensorOilPressure)
	FieldBoostPressure = FieldID(esplink.SensorBoostPressure)
	FieldRPM           = FieldID(esplink.SensorRPM)
	FieldSpeed         = FieldID(esplink.SensorSpeed)
	FieldStatusFlags   = FieldID(esplink.SensorStatusFlags)
	FieldSteeringAngle = FieldID(esplink.SensorSteeringAngle)
	FieldBrakePressure = FieldID(esplink.SensorBrakePressure)
	FieldThrottlePos   = FieldID(esplink.SensorThrottlePos)
	FieldGearPos       = FieldID(esplink.SensorGearPos)
	FieldTyrePressFL   = FieldID(esplink.SensorTyrePressFL)
	FieldTyrePressFR   = FieldID(esplink.SensorTyrePressFR)
	FieldTyrePressRL   = FieldID(esplink.SensorTyrePressRL)
	FieldTyrePressRR   = FieldID(esplink.SensorTyrePressRR)
	FieldTyreTempFL    = FieldID(esplink.SensorTyreTempFL)
	FieldTyreTempFR    = FieldID(esplink.SensorTyreTempFR)
	FieldTyreTempRL    = FieldID(esplink.SensorTyreTempRL)
	FieldTyreTempRR    = FieldID(esplink.SensorTyreTempRR)
)

const (
	FieldLatitude FieldID = 0x40 + iota
	FieldLongitude
	FieldWGSAltitude
	FieldMSLAltitude
	FieldGPSSpeed
	FieldHeading
	FieldGForceX
	FieldGForceY
	FieldGForceZ
	FieldRotationRateX
	FieldRotationRateY
	FieldRotationRateZ
	FieldNumSatellites
	FieldPDOP
	FieldLapTimestamp
)

// Channel is the ingestion source a field arrives on. Staleness timeouts
// are configured per channel.
type Channel int

const (
	ChannelSerial Channel = iota
	ChannelRaceBox
)

func (c Channel) String() string {
	switch c {
	case ChannelSerial:
		return "serial"
	case ChannelRaceBox:
		return "racebox"
	}
	return "unknown"
}

// Channel reports which ingestion source owns the field.
func (id FieldID) Channel() Channel {
	if id >= 0x40 {
		return ChannelRaceBox
	}
	return ChannelSerial
}

type DriveMode int

const (
	ModeRoad DriveMode = iota
	ModeTrack
)

func (m DriveMode) String() string {
	switch m {
	case ModeRoad:
		return "Road"
	case ModeTrack:
		return "Track"
	}
	return "unknown"
}

func ParseDriveMode(s string) (DriveMode, error) {
	switch s {
	case "Road":
		return ModeRoad, nil
	case "Track":
		return ModeTrack, nil
	}
	return ModeRoad, errors.Errorf("unknown drive mode %q", s)
}

type ColorScheme int

const (
	SchemeLight ColorScheme = iota
	SchemeDark
)

func (s ColorScheme) String() string {
	switch s {
	case SchemeLight:
		return "Light"
	case SchemeDark:
		return "Dark"
	}
	return "unknown"
}

func ParseColorScheme(s string) (ColorScheme, error) {
	switch s {
	case "Light":
		return SchemeLight, nil
	case "Dark":
		return SchemeDark, nil
	}
	return SchemeDark, errors.Errorf("unknown color scheme %q", s)
}

// FieldUpdate is one field value to upsert; updates from a single frame
// or wireless record are applied as one atomic batch.
type FieldUpdate struct {
	ID    FieldID
	Value float64
}

// FieldView is a field as seen by a snapshot reader. Stale fields keep
// their last value so the renderer can gray them out instead of dropping
// them.
type FieldView struct {
	Value     float64
	UpdatedAt time.Time
	Stale     bool
}

// ChannelError is the most recent ingestion failure on a channel, kept
// until data flows again.
type ChannelError struct {
	Message string
	At      time.Time
}

// Snapshot is a point-in-time, immutable copy of the aggregated state.
type Snapshot struct {
	Fields      map[FieldID]FieldView
	DriveMode   DriveMode
	ColorScheme ColorScheme
	Errors      map[Channel]ChannelError
}

// StatusFlags decodes the warning-light bitfield if present.
func (s *Snapshot) StatusFlags() (esplink.StatusFlags, bool) {
	f, ok := s.Fields[FieldStatusFlags]
	if !ok {
		return 0, false
	}
	return esplink.StatusFlags(f.Value), true
}
