// Package racebox decodes the RaceBox Micro's binary notification
// payloads. The device streams UBX-style messages over a BLE
// characteristic; session setup and notification delivery are the
// transport's job, so the parser always receives one complete payload.
package racebox

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	headerByte0 byte = 0xB5
	headerByte1 byte = 0x62

	classRaceBox     byte = 0xFF
	msgLiveTelemetry byte = 0x01

	// header + length field + the documented live-telemetry payload
	minPacketLen = 80
)

var (
	// ErrPayloadTooShort reports a truncated notification; the
	// notification is discarded and the stream continues.
	ErrPayloadTooShort = errors.New("racebox payload too short")

	// ErrUnknownMessage reports a message class/id this decoder does not
	// understand. Callers skip it; newer devices send classes older
	// readers have never heard of.
	ErrUnknownMessage = errors.New("unknown racebox message")
)

// Record is one decoded live-telemetry notification.
type Record struct {
	// GPS time-of-week, used as the lap timestamp
	TimestampMillis uint32

	Year   uint16
	Month  byte
	Day    byte
	Hour   byte
	Minute byte
	Second byte

	ValidDate bool
	ValidTime bool

	FixStatus     byte
	FixOK         bool
	NumSatellites byte

	Latitude  float64 // degrees
	Longitude float64 // degrees

	WGSAltitude float64 // meters
	MSLAltitude float64 // meters

	HorizontalAccuracy uint32 // millimeters
	VerticalAccuracy   uint32 // millimeters

	SpeedKPH        float64
	HeadingDegrees  float64
	SpeedAccuracy   float64 // m/s
	HeadingAccuracy float64 // degrees
	PDOP            float64

	// accelerometer, in g
	GForceX float64
	GForceY float64
	GForceZ float64

	// gyroscope, in degrees/second
	RotationRateX float64
	RotationRateY float64
	RotationRateZ float64
}

// Parse decodes one notification payload.
func Parse(data []byte) (*Record, error) {
	if len(data) < 4 {
		return nil, errors.Wrapf(ErrPayloadTooShort, "%d bytes", len(data))
	}
	if data[0] != headerByte0 || data[1] != headerByte1 {
		return nil, errors.Wrap(ErrUnknownMessage, "bad header")
	}
	if data[2] != classRaceBox || data[3] != msgLiveTelemetry {
		return nil, errors.Wrapf(ErrUnknownMessage, "class 0x%02X id 0x%02X", data[2], data[3])
	}
	if len(data) < minPacketLen {
		return nil, errors.Wrapf(ErrPayloadTooShort, "%d bytes, need %d", len(data), minPacketLen)
	}

	le := binary.LittleEndian
	validFlags := data[17]
	fixFlags := data[21]

	return &Record{
		TimestampMillis: le.Uint32(data[6:10]),

		Year:   le.Uint16(data[10:12]),
		Month:  data[12],
		Day:    data[13],
		Hour:   data[14],
		Minute: data[15],
		Second: data[16],

		ValidDate: validFlags&0x01 != 0,
		ValidTime: validFlags&0x02 != 0,

		FixStatus:     data[20],
		FixOK:         fixFlags&0x01 != 0,
		NumSatellites: data[23],

		Longitude: float64(int32(le.Uint32(data[24:28]))) / 1e7,
		Latitude:  float64(int32(le.Uint32(data[28:32]))) / 1e7,

		WGSAltitude: float64(int32(le.Uint32(data[32:36]))) / 1000.0,
		MSLAltitude: float64(int32(le.Uint32(data[36:40]))) / 1000.0,

		HorizontalAccuracy: le.Uint32(data[40:44]),
		VerticalAccuracy:   le.Uint32(data[44:48]),

		// wire speed is mm/s
		SpeedKPH:        float64(int32(le.Uint32(data[48:52]))) * 3.6 / 1000.0,
		HeadingDegrees:  float64(int32(le.Uint32(data[52:56]))) / 1e5,
		SpeedAccuracy:   float64(le.Uint32(data[56:60])) / 1000.0,
		HeadingAccuracy: float64(le.Uint32(data[60:64])) / 1e5,
		PDOP:            float64(le.Uint16(data[64:66])) / 100.0,

		// milli-g on the wire
		GForceX: float64(int16(le.Uint16(data[68:70]))) / 1000.0,
		GForceY: float64(int16(le.Uint16(data[70:72]))) / 1000.0,
		GForceZ: float64(int16(le.Uint16(data[72:74]))) / 1000.0,

		// centi-degrees/second on the wire
		RotationRateX: float64(int16(le.Uint16(data[74:76]))) / 100.0,
		RotationRateY: float64(int16(le.Uint16(data[76:78]))) / 100.0,
		RotationRateZ: float64(int16(le.Uint16(data[78:80]))) / 100.0,
	}, nil
}
