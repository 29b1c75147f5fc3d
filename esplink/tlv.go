package esplink

import (
	"github.com/pkg/errors"
)

// ErrMalformedTLV is returned when an entry declares more value bytes than
// remain in the payload. The whole frame is discarded; leading entries are
// not partially recovered.
var ErrMalformedTLV = errors.New("malformed TLV entry")

// Entry is a single type-length-value record from a frame payload.
// Unknown IDs are decoded like any other entry; whether they map to a
// sensor is decided later so new firmware fields never break old readers.
type Entry struct {
	ID    byte
	Value []byte
}

// EntryReader iterates over the entries packed in a frame payload.
type EntryReader struct {
	buf []byte
	off int
}

func NewEntryReader(payload []byte) *EntryReader {
	return &EntryReader{buf: payload}
}

// Next returns the next entry. ok is false once the payload is exhausted.
func (r *EntryReader) Next() (e Entry, ok bool, err error) {
	if r.off >= len(r.buf) {
		return Entry{}, false, nil
	}
	if r.off+2 > len(r.buf) {
		return Entry{}, false, errors.Wrapf(ErrMalformedTLV, "dangling header at offset %d", r.off)
	}
	id := r.buf[r.off]
	length := int(r.buf[r.off+1])
	r.off += 2
	if r.off+length > len(r.buf) {
		return Entry{}, false, errors.Wrapf(ErrMalformedTLV,
			"entry 0x%02X declares %d value bytes, %d remain", id, length, len(r.buf)-r.off)
	}
	value := r.buf[r.off : r.off+length]
	r.off += length
	return Entry{ID: id, Value: value}, true, nil
}

// DecodeEntries decodes every entry in the payload, preserving order.
// Order matters: a later entry with the same ID supersedes an earlier one
// when the readings are applied.
func DecodeEntries(payload []byte) ([]Entry, error) {
	var entries []Entry
	r := NewEntryReader(payload)
	for {
		e, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return entries, nil
		}
		entries = append(entries, e)
	}
}

// EncodeEntries packs entries back into payload form. Used by the mock
// telemetry generator and test fixtures.
func EncodeEntries(entries []Entry) []byte {
	var buf []byte
	for _, e := range entries {
		buf = append(buf, e.ID, byte(len(e.Value)))
		buf = append(buf, e.Value...)
	}
	return buf
}
