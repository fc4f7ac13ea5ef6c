package frame

import "errors"

// The length prefix is self-describing big-endian: the run of leading
// one bits in the first byte selects the total width.
//
//	0x00..0x7F                n, 1 byte
//	0x80..0x3FFF              n | 0x8000, 2 bytes
//	0x4000..0x1FFFFF          n | 0xC00000, 3 bytes
//	0x200000..0xFFFFFFF       n | 0xE0000000, 4 bytes
//	0x10000000..0xFFFFFFFF    0xF0 marker then 4 raw bytes
//
// A first byte above 0xF0 has no defined bit pattern.
const (
	len1Max = 0x7F
	len2Max = 0x3FFF
	len3Max = 0x1FFFFF
	len4Max = 0xFFFFFFF
	lenMax  = 0xFFFFFFFF
)

var (
	ErrFrameTooLong = errors.New("frame: length outside the 32-bit protocol range")
	ErrShortPrefix  = errors.New("frame: short length prefix")
)

// AppendLength appends the minimal-width encoding of n to dst.
func AppendLength(dst []byte, n uint64) ([]byte, error) {
	switch {
	case n <= len1Max:
		return append(dst, byte(n)), nil
	case n <= len2Max:
		return append(dst, byte(n>>8)|0x80, byte(n)), nil
	case n <= len3Max:
		return append(dst, byte(n>>16)|0xC0, byte(n>>8), byte(n)), nil
	case n <= len4Max:
		return append(dst, byte(n>>24)|0xE0, byte(n>>16), byte(n>>8), byte(n)), nil
	case n <= lenMax:
		return append(dst, 0xF0, byte(n>>24), byte(n>>16), byte(n>>8), byte(n)), nil
	default:
		return dst, ErrFrameTooLong
	}
}

// DecodeLength decodes one length prefix from the start of b, returning
// the value and the number of prefix bytes consumed.
func DecodeLength(b []byte) (uint32, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortPrefix
	}
	width, err := lengthWidth(b[0])
	if err != nil {
		return 0, 0, err
	}
	if len(b) < width {
		return 0, 0, ErrShortPrefix
	}
	return decodeLength(b[:width]), width, nil
}

// lengthWidth reports the full prefix width implied by its first byte.
func lengthWidth(b byte) (int, error) {
	switch {
	case b < 0x80:
		return 1, nil
	case b < 0xC0:
		return 2, nil
	case b < 0xE0:
		return 3, nil
	case b < 0xF0:
		return 4, nil
	case b == 0xF0:
		return 5, nil
	default:
		return 0, ErrFrameTooLong
	}
}

// decodeLength decodes a complete prefix. b holds exactly the width
// lengthWidth reported.
func decodeLength(b []byte) uint32 {
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(b[0]&0x3F)<<8 | uint32(b[1])
	case 3:
		return uint32(b[0]&0x1F)<<16 | uint32(b[1])<<8 | uint32(b[2])
	case 4:
		return uint32(b[0]&0x0F)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	default:
		return uint32(b[1])<<24 | uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4])
	}
}
