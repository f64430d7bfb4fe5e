//go:build amd64 && !noasm

package morton

import "golang.org/x/sys/cpu"

func init() {
	if cpu.X86.HasBMI2 {
		encodeImpl = encodeBMI2
		decodeImpl = decodeBMI2
		implName = "bmi2"
	}
}

func pdep(src, mask uint64) uint64

func pext(src, mask uint64) uint64

func encodeBMI2(x, y uint32) uint64 {
	return pdep(uint64(x), xMask) | pdep(uint64(y), yMask)
}

func decodeBMI2(key uint64) (x, y uint32) {
	return uint32(pext(key, xMask)), uint32(pext(key, yMask))
}
