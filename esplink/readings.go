package esplink

import (
	"encoding/binary"
)

// SensorID identifies a sensor on the serial link. Values are the wire
// TLV IDs. IDs at or above 0x80 are reserved by the protocol and must be
// accepted and ignored.
type SensorID byte

const (
	SensorFuelLevel     SensorID = 0x01 // ADC counts 0-4095
	SensorOilPressure   SensorID = 0x02 // ADC counts 0-4095
	SensorBoostPressure SensorID = 0x03 // ADC counts 0-4095
	SensorRPM           SensorID = 0x04 // 0-16000
	SensorSpeed         SensorID = 0x05 // 0-400
	SensorStatusFlags   SensorID = 0x06 // bitfield, see StatusFlags
	SensorSteeringAngle SensorID = 0x07 // signed, 0.1 degree LSB
	SensorBrakePressure SensorID = 0x08 // 0.01 bar LSB
	SensorThrottlePos   SensorID = 0x09
	SensorGearPos       SensorID = 0x0A
	SensorTyrePressFL   SensorID = 0x0B // 0.01 bar LSB
	SensorTyrePressFR   SensorID = 0x0C
	SensorTyrePressRL   SensorID = 0x0D
	SensorTyrePressRR   SensorID = 0x0E
	SensorTyreTempFL    SensorID = 0x0F // signed, 0.1 degree C LSB
	SensorTyreTempFR    SensorID = 0x10
	SensorTyreTempRL    SensorID = 0x11
	SensorTyreTempRR    SensorID = 0x12

	reservedIDBase SensorID = 0x80
)

// Reading is one decoded sensor value. Raw is the wire integer; Value has
// the per-sensor scale applied.
type Reading struct {
	ID    SensorID
	Raw   int32
	Value float64
}

type sensorSpec struct {
	width  int
	signed bool
	scale  float64
}

var sensorSpecs = map[SensorID]sensorSpec{
	SensorFuelLevel:     {width: 2, scale: 1},
	SensorOilPressure:   {width: 2, scale: 1},
	SensorBoostPressure: {width: 2, scale: 1},
	SensorRPM:           {width: 2, scale: 1},
	SensorSpeed:         {width: 2, scale: 1},
	SensorStatusFlags:   {width: 1, scale: 1},
	SensorSteeringAngle: {width: 2, signed: true, scale: 0.1},
	SensorBrakePressure: {width: 2, scale: 0.01},
	SensorThrottlePos:   {width: 1, scale: 1},
	SensorGearPos:       {width: 1, scale: 1},
	SensorTyrePressFL:   {width: 2, scale: 0.01},
	SensorTyrePressFR:   {width: 2, scale: 0.01},
	SensorTyrePressRL:   {width: 2, scale: 0.01},
	SensorTyrePressRR:   {width: 2, scale: 0.01},
	SensorTyreTempFL:    {width: 2, signed: true, scale: 0.1},
	SensorTyreTempFR:    {width: 2, signed: true, scale: 0.1},
	SensorTyreTempRL:    {width: 2, signed: true, scale: 0.1},
	SensorTyreTempRR:    {width: 2, signed: true, scale: 0.1},
}

// ReadingFromEntry converts a TLV entry to a scaled reading. ok is false
// for reserved or unknown IDs and for entries whose value width does not
// match the sensor table; both are skipped, never treated as errors.
func ReadingFromEntry(e Entry) (Reading, bool) {
	spec, known := sensorSpecs[SensorID(e.ID)]
	if !known || len(e.Value) != spec.width {
		return Reading{}, false
	}

	var raw int32
	switch spec.width {
	case 1:
		raw = int32(e.Value[0])
	case 2:
		u := binary.BigEndian.Uint16(e.Value)
		if spec.signed {
			raw = int32(int16(u))
		} else {
			raw = int32(u)
		}
	}
	return Reading{
		ID:    SensorID(e.ID),
		Raw:   raw,
		Value: float64(raw) * spec.scale,
	}, true
}

// ReadingsFromEntries maps a frame's entries to readings, preserving
// order so later duplicates supersede earlier ones downstream.
func ReadingsFromEntries(entries []Entry) []Reading {
	readings := make([]Reading, 0, len(entries))
	for _, e := range entries {
		if r, ok := ReadingFromEntry(e); ok {
			readings = append(readings, r)
		}
	}
	return readings
}

// StatusFlags is the vehicle warning-light bitfield carried by
// SensorStatusFlags.
type StatusFlags byte

const (
	FlagMIL StatusFlags = 1 << iota
	FlagABSWarning
	FlagAirbagWarning
	FlagLeftTurn
	FlagRightTurn
	FlagHighBeam
	FlagParkingBrake
	FlagReserved
)

func (f StatusFlags) MIL() bool           { return f&FlagMIL != 0 }
func (f StatusFlags) ABSWarning() bool    { return f&FlagABSWarning != 0 }
func (f StatusFlags) AirbagWarning() bool { return f&FlagAirbagWarning != 0 }
func (f StatusFlags) LeftTurn() bool      { return f&FlagLeftTurn != 0 }
func (f StatusFlags) RightTurn() bool     { return f&FlagRightTurn != 0 }
func (f StatusFlags) HighBeam() bool      { return f&FlagHighBeam != 0 }
func (f StatusFlags) ParkingBrake() bool  { return f&FlagParkingBrake != 0 }
