package morton

// spread8 maps every byte to its bits spread over the even positions of a
// 16-bit value: 0b1011 -> 0b01000101.
var spread8 [256]uint16

func init() {
	for i := range spread8 {
		var v uint16
		for b := 0; b < 8; b++ {
			if i&(1<<b) != 0 {
				v |= 1 << (2 * b)
			}
		}
		spread8[i] = v
	}
}

func encodeLUT(x, y uint32) uint64 {
	var key uint64
	for shift := 24; shift >= 0; shift -= 8 {
		key = key<<16 |
			uint64(spread8[(x>>shift)&0xFF])<<1 |
			uint64(spread8[(y>>shift)&0xFF])
	}
	return key
}

func decodeCompact(key uint64) (x, y uint32) {
	return compactBits(key >> 1), compactBits(key)
}

// compactBits gathers the even bits of n into the low 32 bits.
func compactBits(n uint64) uint32 {
	n &= yMask
	n = (n ^ (n >> 1)) & 0x3333333333333333
	n = (n ^ (n >> 2)) & 0x0F0F0F0F0F0F0F0F
	n = (n ^ (n >> 4)) & 0x00FF00FF00FF00FF
	n = (n ^ (n >> 8)) & 0x0000FFFF0000FFFF
	n = (n ^ (n >> 16)) & 0x00000000FFFFFFFF
	return uint32(n)
}
