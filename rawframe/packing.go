package rawframe

// BitDepth is the number of bits per packed sample.
const BitDepth = 12

// PackedSize is the number of bytes a width x height frame occupies in the
// stream.
func PackedSize(width, height int) int {
	return width * height * BitDepth / 8
}

// Unpack12 expands 3-byte groups into pairs of samples:
//
//	byte0:byte1[7:4] -> even sample, byte1[3:0]:byte2 -> odd sample
//
// dst must hold at least 2*(len(packed)/3) samples.
func Unpack12(dst []int16, packed []byte) {
	groups := len(packed) / 3
	if groups == 0 {
		return
	}
	_ = dst[2*groups-1]
	for g := 0; g < groups; g++ {
		b0, b1, b2 := int16(packed[3*g]), int16(packed[3*g+1]), int16(packed[3*g+2])
		dst[2*g] = b0<<4 | b1>>4
		dst[2*g+1] = (b1&0xf)<<8 | b2
	}
}

// Pack12 is the inverse of Unpack12. Samples are truncated to 12 bits.
func Pack12(dst []byte, samples []int16) {
	for g := 0; g < len(samples)/2; g++ {
		a, b := uint16(samples[2*g])&0xfff, uint16(samples[2*g+1])&0xfff
		dst[3*g] = byte(a >> 4)
		dst[3*g+1] = byte(a&0xf)<<4 | byte(b>>8)
		dst[3*g+2] = byte(b)
	}
}
