// internal/frame/crc.go
package frame

import "sync"

const crcPoly16 uint16 = 0xA001

var (
	crcOnce  sync.Once
	crcTable [256]uint16
)

func initCRCTable() {
	for i := 0; i < 256; i++ {
		crc := uint16(0)
		b := uint16(i)
		for j := 0; j < 8; j++ {
			if (crc^b)&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPoly16
			} else {
				crc >>= 1
			}
			b >>= 1
		}
		crcTable[i] = crc
	}
}

// CRC16 computes the Modbus RTU checksum (reflected, poly 0xA001, seed 0xFFFF).
// The result is appended to a frame low byte first.
func CRC16(b []byte) uint16 {
	crcOnce.Do(initCRCTable)

	crc := uint16(0xFFFF)
	for _, v := range b {
		crc = (crc >> 8) ^ crcTable[(crc^uint16(v))&0x00FF]
	}
	return crc
}

// appendCRC appends the checksum of adu to adu.
func appendCRC(adu []byte) []byte {
	crc := CRC16(adu)
	return append(adu, byte(crc), byte(crc>>8))
}
