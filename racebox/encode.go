package racebox

import (
	"encoding/binary"
	"math"
)

// Encode builds the wire form of a record. The real device encodes in
// firmware; this exists for the mock telemetry generator and tests.
func Encode(r *Record) []byte {
	data := make([]byte, minPacketLen)
	le := binary.LittleEndian

	data[0] = headerByte0
	data[1] = headerByte1
	data[2] = classRaceBox
	data[3] = msgLiveTelemetry
	le.PutUint16(data[4:6], minPacketLen-6)

	le.PutUint32(data[6:10], r.TimestampMillis)
	le.PutUint16(data[10:12], r.Year)
	data[12] = r.Month
	data[13] = r.Day
	data[14] = r.Hour
	data[15] = r.Minute
	data[16] = r.Second

	var validFlags byte
	if r.ValidDate {
		validFlags |= 0x01
	}
	if r.ValidTime {
		validFlags |= 0x02
	}
	data[17] = validFlags

	data[20] = r.FixStatus
	if r.FixOK {
		data[21] = 0x01
	}
	data[23] = r.NumSatellites

	le.PutUint32(data[24:28], uint32(int32(math.Round(r.Longitude*1e7))))
	le.PutUint32(data[28:32], uint32(int32(math.Round(r.Latitude*1e7))))
	le.PutUint32(data[32:36], uint32(int32(math.Round(r.WGSAltitude*1000))))
	le.PutUint32(data[36:40], uint32(int32(math.Round(r.MSLAltitude*1000))))
	le.PutUint32(data[40:44], r.HorizontalAccuracy)
	le.PutUint32(data[44:48], r.VerticalAccuracy)
	le.PutUint32(data[48:52], uint32(int32(math.Round(r.SpeedKPH/3.6*1000))))
	le.PutUint32(data[52:56], uint32(int32(math.Round(r.HeadingDegrees*1e5))))
	le.PutUint32(data[56:60], uint32(math.Round(r.SpeedAccuracy*1000)))
	le.PutUint32(data[60:64], uint32(math.Round(r.HeadingAccuracy*1e5)))
	le.PutUint16(data[64:66], uint16(math.Round(r.PDOP*100)))

	le.PutUint16(data[68:70], uint16(int16(math.Round(r.GForceX*1000))))
	le.PutUint16(data[70:72], uint16(int16(math.Round(r.GForceY*1000))))
	le.PutUint16(data[72:74], uint16(int16(math.Round(r.GForceZ*1000))))
	le.PutUint16(data[74:76], uint16(int16(math.Round(r.RotationRateX*100))))
	le.PutUint16(data[76:78], uint16(int16(math.Round(r.RotationRateY*100))))
	le.PutUint16(data[78:80], uint16(int16(math.Round(r.RotationRateZ*100))))

	return data
}
