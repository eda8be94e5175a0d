package apnganim

import "hash/crc32"

// chunkCRC computes the PNG chunk checksum over the type tag followed
// by the data bytes. The leading length field is never included. PNG
// uses the IEEE polynomial (0xEDB88320 reflected) with 0xFFFFFFFF
// initial register and final XOR, which crc32.Update applies for us.
func chunkCRC(table *crc32.Table, name string, data []byte) uint32 {
	crc := crc32.Update(0, table, []byte(name))
	return crc32.Update(crc, table, data)
}
