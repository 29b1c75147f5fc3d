package esplink

import (
	"encoding/binary"

	log "github.com/sirupsen/logrus"
)

const (
	StartByte byte = 0xAA
	EndByte   byte = 0x55

	// header (start, length, version) plus CRC16 and end byte
	frameOverhead = 6
)

// Frame is one checksum-verified unit received from the sensor node.
type Frame struct {
	Version byte
	Entries []Entry
}

// Stats counts decode outcomes. The link is lossy by design so corruption
// is expected and observable rather than fatal.
type Stats struct {
	Frames         uint64
	FramingErrors  uint64
	ChecksumErrors uint64
	TLVErrors      uint64
	BytesDiscarded uint64
}

// Decoder extracts frames from a byte stream delivered in arbitrary
// chunks. Bytes that do not yet form a complete frame stay buffered; a
// corrupted frame costs only its start byte before scanning resumes, so a
// valid frame immediately after garbage is still decoded.
type Decoder struct {
	buf   []byte
	stats Stats
}

func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, 512)}
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// Push appends newly received bytes and returns any frames completed by
// them, in stream order.
func (d *Decoder) Push(p []byte) []Frame {
	d.buf = append(d.buf, p...)

	var frames []Frame
	for {
		start := -1
		for i, b := range d.buf {
			if b == StartByte {
				start = i
				break
			}
		}
		if start < 0 {
			d.discard(len(d.buf))
			return frames
		}
		if start > 0 {
			d.discard(start)
		}

		// need at least LEN and VER to know the frame size
		if len(d.buf) < 3 {
			return frames
		}
		length := int(d.buf[1])
		total := length + frameOverhead
		if len(d.buf) < total {
			return frames
		}

		if d.buf[total-1] != EndByte {
			d.stats.FramingErrors++
			log.WithField("len", length).Debug("esplink: bad end byte, resyncing")
			d.dropStartByte()
			continue
		}

		// entries keep referencing the payload after the buffer is
		// compacted, so it must be copied out
		payload := append([]byte(nil), d.buf[3:3+length]...)
		want := binary.BigEndian.Uint16(d.buf[3+length : 5+length])
		got := Checksum(d.buf[2 : 3+length])
		if got != want {
			d.stats.ChecksumErrors++
			log.WithField("want", want).
				WithField("got", got).
				Debug("esplink: checksum mismatch, resyncing")
			d.dropStartByte()
			continue
		}

		entries, err := DecodeEntries(payload)
		if err != nil {
			// frame boundary already verified, safe to skip it whole
			d.stats.TLVErrors++
			log.WithField("err", err).Debug("esplink: discarding frame")
			d.consume(total)
			continue
		}

		d.stats.Frames++
		frames = append(frames, Frame{Version: d.buf[2], Entries: entries})
		d.consume(total)
	}
}

// dropStartByte removes only the leading start byte so that scanning
// resumes on the next byte. Dropping more would risk swallowing a valid
// frame that begins inside the corrupted region.
func (d *Decoder) dropStartByte() {
	d.discard(1)
}

func (d *Decoder) discard(n int) {
	d.stats.BytesDiscarded += uint64(n)
	d.consume(n)
}

func (d *Decoder) consume(n int) {
	d.buf = append(d.buf[:0], d.buf[n:]...)
}
