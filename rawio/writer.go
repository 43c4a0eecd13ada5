// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package rawio

import "encoding/binary"

// Writer is a growable byte buffer with big-endian integer and raw byte
// append operations. The zero value is ready for use as an empty writer.
type Writer struct {
	buf []byte
}

// Len reports the number of bytes currently written to w.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes reports the current contents of w. The writer retains ownership of
// the returned slice; the caller must not modify it if w will be used
// again.
func (w *Writer) Bytes() []byte { return w.buf }

// Grow ensures at least n more bytes can be appended without reallocating.
func (w *Writer) Grow(n int) {
	want := len(w.buf) + n
	if cap(w.buf) < want {
		r := make([]byte, len(w.buf), max(want, 2*cap(w.buf)))
		copy(r, w.buf)
		w.buf = r
	}
}

// WriteU8 appends a single byte.
func (w *Writer) WriteU8(v byte) { w.buf = append(w.buf, v) }

// WriteU16 appends v in big-endian order.
func (w *Writer) WriteU16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

// WriteU24 appends the low 24 bits of v in big-endian order.
func (w *Writer) WriteU24(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

// WriteU32 appends v in big-endian order.
func (w *Writer) WriteU32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(vs ...byte) { w.buf = append(w.buf, vs...) }
