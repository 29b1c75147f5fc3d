package esplink

const (
	crcPolynomial uint16 = 0x1021
	crcInitial    uint16 = 0x0000
)

// Checksum computes the CRC-16/XMODEM checksum the sensor node appends to
// every frame. It covers the version byte followed by the TLV payload.
func Checksum(data []byte) uint16 {
	crc := crcInitial
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
