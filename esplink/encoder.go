package esplink

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ProtocolVersion is the frame version the current sensor node firmware
// sends.
const ProtocolVersion byte = 0x01

// EncodeFrame wraps a TLV payload in the wire framing:
//
//	START | LEN | VER | payload | CRC16 (big-endian) | END
//
// The checksum covers the version byte and the payload. Frames are
// produced by the mock telemetry generator and test fixtures; the real
// sensor node encodes them in firmware.
func EncodeFrame(version byte, payload []byte) ([]byte, error) {
	if len(payload) > 0xFF {
		return nil, errors.Errorf("payload too large: %d bytes", len(payload))
	}
	buf := make([]byte, 0, len(payload)+frameOverhead)
	buf = append(buf, StartByte, byte(len(payload)), version)
	buf = append(buf, payload...)
	crc := Checksum(buf[2:])
	buf = binary.BigEndian.AppendUint16(buf, crc)
	buf = append(buf, EndByte)
	return buf, nil
}

// EncodeReadingsFrame builds a complete frame from sensor entries.
func EncodeReadingsFrame(entries []Entry) ([]byte, error) {
	return EncodeFrame(ProtocolVersion, EncodeEntries(entries))
}

// U16Entry builds a big-endian unsigned 16-bit entry.
func U16Entry(id byte, v uint16) Entry {
	return Entry{ID: id, Value: []byte{byte(v >> 8), byte(v)}}
}

// I16Entry builds a big-endian signed 16-bit entry.
func I16Entry(id byte, v int16) Entry {
	return U16Entry(id, uint16(v))
}

// U8Entry builds a single-byte entry.
func U8Entry(id byte, v byte) Entry {
	return Entry{ID: id, Value: []byte{v}}
}
