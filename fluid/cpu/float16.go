package cpu

import "math"

// roundHalf rounds f to the nearest IEEE 754 binary16 value, overflowing to ±Inf
// like a half-float render target would.
func roundHalf(f float32) float32 {
	return float16BitsToFloat32(float32ToFloat16Bits(f))
}

func float32ToFloat16Bits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int((bits >> 23) & 0xff)
	mant := bits & 0x7fffff

	switch exp {
	case 0xff:
		if mant == 0 {
			return sign | 0x7c00
		}
		mant >>= 13
		if mant == 0 {
			mant = 1
		}
		return sign | 0x7c00 | uint16(mant)
	case 0:
		if mant == 0 {
			return sign
		}
	}

	expHalf := exp - 127 + 15
	if expHalf >= 0x1f {
		return sign | 0x7c00
	}
	if expHalf <= 0 {
		if expHalf < -10 {
			return sign
		}
		mant |= 0x800000
		mant >>= uint(1 - expHalf)
		mant += 0x1000
		return sign | uint16(mant>>13)
	}

	mant += 0x1000
	if mant&0x800000 != 0 {
		mant = 0
		expHalf++
		if expHalf >= 0x1f {
			return sign | 0x7c00
		}
	}
	return sign | uint16(expHalf<<10) | uint16(mant>>13)
}

func float16BitsToFloat32(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := int((h >> 10) & 0x1f)
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		exp = -14
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		mant &= 0x3ff
		return math.Float32frombits(sign | uint32((exp+127)<<23) | (mant << 13))
	case 0x1f:
		bits := sign | 0x7f800000 | (mant << 13)
		if mant != 0 {
			bits |= 1
		}
		return math.Float32frombits(bits)
	default:
		return math.Float32frombits(sign | uint32((exp-15+127)<<23) | (mant << 13))
	}
}
