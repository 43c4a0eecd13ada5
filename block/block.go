// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package block implements the RFC 7959 block-wise transfer option value
// (the NUM/M/SZX triple carried by the Block1 and Block2 options) including
// the BERT extension, and the slicing operations used to walk a full
// payload one block at a time.
package block

import (
	"errors"
	"fmt"
)

// Size is one of the block sizes an SZX field can select. BERT reuses the
// 1024-byte codepoint (SZX 7) but permits messages to carry more than one
// 1024-byte block; whether a given Size is a BERT block is a property of
// how it is used (see Option.Bert), not of the Size value itself.
type Size uint32

// The seven SZX-selectable block sizes, in bytes.
const (
	Size16   Size = 16
	Size32   Size = 32
	Size64   Size = 64
	Size128  Size = 128
	Size256  Size = 256
	Size512  Size = 512
	Size1024 Size = 1024
)

// szx returns the 3-bit SZX codepoint for s, or an error if s is not one of
// the seven defined block sizes.
func (s Size) szx() (byte, error) {
	switch s {
	case Size16:
		return 0, nil
	case Size32:
		return 1, nil
	case Size64:
		return 2, nil
	case Size128:
		return 3, nil
	case Size256:
		return 4, nil
	case Size512:
		return 5, nil
	case Size1024:
		return 6, nil
	default:
		return 0, fmt.Errorf("block: %d is not a valid block size", uint32(s))
	}
}

func sizeFromSZX(szx byte) (Size, error) {
	switch szx {
	case 0:
		return Size16, nil
	case 1:
		return Size32, nil
	case 2:
		return Size64, nil
	case 3:
		return Size128, nil
	case 4:
		return Size256, nil
	case 5:
		return Size512, nil
	case 6:
		return Size1024, nil
	case 7:
		// SZX 7 is reserved for BERT: a 1024-byte block that is not
		// necessarily the final one, permitting multiples of 1024 bytes
		// in a single message.
		return Size1024, nil
	default:
		return 0, fmt.Errorf("block: invalid SZX %d", szx)
	}
}

// ErrFormat reports a malformed block option encoding.
var ErrFormat = errors.New("block: malformed encoding")

// Option is the decoded NUM/M/SZX triple carried by a Block1 or Block2
// option value.
type Option struct {
	Num  uint32 // block number, 0-based
	Size Size   // block size selected by SZX
	More bool   // M bit: more blocks follow this one
	Bert bool   // this option used the BERT (SZX=7) codepoint
}

// Bytes encodes o as the minimal-width variable-length unsigned integer
// used on the wire (1 to 3 bytes): the low 3 bits carry SZX, bit 3 carries
// the M flag, and the remaining upper bits carry the block number.
func (o Option) Bytes() ([]byte, error) {
	szx, err := o.Size.szx()
	if o.Bert {
		szx = 7
	} else if err != nil {
		return nil, err
	}

	v := o.Num << 4
	if o.More {
		v |= 1 << 3
	}
	v |= uint32(szx)

	switch {
	case v == 0:
		return []byte{0}, nil
	case v < 1<<8:
		return []byte{byte(v)}, nil
	case v < 1<<16:
		return []byte{byte(v >> 8), byte(v)}, nil
	case v < 1<<24:
		return []byte{byte(v >> 16), byte(v >> 8), byte(v)}, nil
	default:
		return nil, fmt.Errorf("block: value %d exceeds 3-byte encoding", v)
	}
}

// Parse decodes a block option value. Encodings shorter than the minimal
// width are still accepted, per spec.md §4.3.
func Parse(raw []byte) (Option, error) {
	if len(raw) > 3 {
		return Option{}, fmt.Errorf("%w: value too long (%d bytes)", ErrFormat, len(raw))
	}
	var v uint32
	for _, b := range raw {
		v = v<<8 | uint32(b)
	}

	szx := byte(v & 0x07)
	more := v&0x08 != 0
	num := v >> 4

	size, err := sizeFromSZX(szx)
	if err != nil {
		return Option{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return Option{Num: num, Size: size, More: more, Bert: szx == 7}, nil
}

// NextBlock computes the block option that follows o for a non-BERT
// transfer, given the full payload being transferred. The More flag is set
// according to whether any bytes of fullPayload remain beyond the next
// block.
func (o Option) NextBlock(fullPayload []byte) Option {
	return o.NextBertBlock(fullPayload, 1)
}

// NextBertBlock computes the block option that follows o when
// bertBlocksPerMessage consecutive blocks of o.Size are consumed per
// message (1 for a standard, non-BERT transfer).
func (o Option) NextBertBlock(fullPayload []byte, bertBlocksPerMessage uint32) Option {
	nextNum := o.Num + bertBlocksPerMessage
	size := uint32(o.Size)
	more := uint32(len(fullPayload)) > (nextNum+1)*size
	return Option{Num: nextNum, Size: o.Size, More: more, Bert: o.Bert}
}

// CreatePart slices the sub-range of fullPayload selected by o: bytes
// [o.Num*size, min(len(fullPayload), (o.Num+1)*size)). It returns (nil,
// false) if the block's start offset lies beyond the end of the payload.
func (o Option) CreatePart(fullPayload []byte) ([]byte, bool) {
	size := int(o.Size)
	start := int(o.Num) * size
	if start > len(fullPayload)-1 {
		return nil, false
	}
	end := start + size
	if end > len(fullPayload) {
		end = len(fullPayload)
	}
	out := make([]byte, end-start)
	copy(out, fullPayload[start:end])
	return out, true
}

// AppendPayload appends block to buf and reports how many blocks of o.Size
// were added -- 1 for a non-BERT block, or more than 1 when block carries
// several BERT blocks concatenated in one message.
func (o Option) AppendPayload(buf []byte, blockBytes []byte) ([]byte, int) {
	buf = append(buf, blockBytes...)
	return buf, len(blockBytes) / int(o.Size)
}
