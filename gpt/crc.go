package gpt

import "hash/crc32"

// Checksum returns the CRC-32 (IEEE) used by GPT headers and partition tables.
func Checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// headerChecksum computes the header CRC over hdr with the CRC field treated
// as zero. hdr must hold at least HeaderSize bytes.
func headerChecksum(hdr []byte) uint32 {
	var tmp [HeaderSize]byte
	copy(tmp[:], hdr[:HeaderSize])
	clear(tmp[16:20])
	return Checksum(tmp[:])
}
