package bytebuffers

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/brickingsoft/errors"
)

var pagesize = os.Getpagesize()

const maxInt = int(^uint(0) >> 1)

func New(opts ...Option) *Buffer {
	return NewWithSize(pagesize, opts...)
}

func NewWithSize(size int, opts ...Option) *Buffer {
	if size < 0 {
		size = 0
	}
	options := Options{}
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			panic(fmt.Sprintf("bytebuffers.Buffer: new buffer failed, %v", err))
		}
	}
	return &Buffer{
		b:    make([]byte, size),
		r:    0,
		w:    0,
		zero: options.ZeroOnReset,
	}
}

// Buffer is a growable byte container for non-blocking socket io.
//
// The backing storage is split into three regions by two cursors:
// [0,r) was consumed and is reclaimable, [r,w) is readable, [w,len(b)) is
// writable. 0 <= r <= w <= len(b) holds after every operation.
//
// A Buffer has exactly one owner. No internal locking is performed.
type Buffer struct {
	b    []byte
	r    int
	w    int
	zero bool
}

// Len returns the number of readable bytes.
func (buf *Buffer) Len() int { return buf.w - buf.r }

func (buf *Buffer) Cap() int { return len(buf.b) }

// Writable returns the free space left for appends.
func (buf *Buffer) Writable() int { return len(buf.b) - buf.w }

// Prependable returns the consumed space reclaimable by compaction.
func (buf *Buffer) Prependable() int { return buf.r }

// Peek returns the readable region without copying or consuming.
//
// The returned slice aliases the backing storage: it is valid only until
// the next mutating call on buf, which may shift or reallocate storage.
func (buf *Buffer) Peek() (p []byte) {
	p = buf.b[buf.r:buf.w]
	return
}

// Bytes returns an owned copy of the readable region without consuming it.
func (buf *Buffer) Bytes() (p []byte) {
	p = make([]byte, buf.Len())
	copy(p, buf.b[buf.r:buf.w])
	return
}

// Grow guarantees space for n more bytes, reclaiming consumed space or
// reallocating as needed. Readable bytes are preserved. It is a no-op when
// the writable region already holds n bytes.
func (buf *Buffer) Grow(n int) (err error) {
	if n < 1 || buf.Writable() >= n {
		return
	}
	err = buf.grow(n)
	return
}

// Allocate grows the buffer by n and exposes the writable window for the
// caller to fill directly, paired with Wrote.
func (buf *Buffer) Allocate(n int) (p []byte, err error) {
	if n < 1 {
		err = errors.From(ErrAllocateZero,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, "allocate"),
		)
		return
	}
	if err = buf.Grow(n); err != nil {
		return
	}
	p = buf.b[buf.w : buf.w+n]
	return
}

// Wrote marks n bytes of the writable region as valid data, advancing the
// write cursor. The caller must have placed the bytes there beforehand,
// via Allocate or a descriptor read.
func (buf *Buffer) Wrote(n int) (err error) {
	if n < 0 || n > buf.Writable() {
		err = errors.From(ErrOutOfRange,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, "wrote"),
		)
		return
	}
	buf.w += n
	return
}

// Discard consumes n readable bytes. Storage is not shrunk and the write
// cursor does not move. Discarding more than Len() fails with ErrOutOfRange
// and leaves the cursors untouched.
func (buf *Buffer) Discard(n int) (err error) {
	if n < 0 || n > buf.Len() {
		err = errors.From(ErrOutOfRange,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, "discard"),
		)
		return
	}
	buf.r += n
	return
}

// DiscardUntil consumes everything before offset end of the current Peek
// view, for callers that located a position with a scan.
func (buf *Buffer) DiscardUntil(end int) (err error) {
	if end < 0 || end > buf.Len() {
		err = errors.From(ErrOutOfRange,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, "discard_until"),
		)
		return
	}
	buf.r += end
	return
}

// Reset drops all readable data and returns the buffer to maximal writable
// capacity. Storage is kept. When the buffer was constructed with
// WithZeroOnReset, the whole backing storage is zeroed first.
func (buf *Buffer) Reset() {
	if buf.zero {
		clear(buf.b)
	}
	buf.r = 0
	buf.w = 0
}

// Drain captures all readable bytes as an owned slice, then Reset.
func (buf *Buffer) Drain() (p []byte) {
	p = make([]byte, buf.Len())
	copy(p, buf.b[buf.r:buf.w])
	buf.Reset()
	return
}

// DrainString captures all readable bytes as a string, then Reset.
func (buf *Buffer) DrainString() (s string) {
	s = string(buf.b[buf.r:buf.w])
	buf.Reset()
	return
}

// Write appends p. There are no partial appends: either the whole payload
// is stored or the buffer is left unchanged and the growth error returned.
func (buf *Buffer) Write(p []byte) (n int, err error) {
	pLen := len(p)
	if pLen == 0 {
		return
	}
	if err = buf.Grow(pLen); err != nil {
		return
	}
	n = copy(buf.b[buf.w:], p)
	buf.w += n
	return
}

func (buf *Buffer) WriteString(s string) (n int, err error) {
	sLen := len(s)
	if sLen == 0 {
		return
	}
	if err = buf.Grow(sLen); err != nil {
		return
	}
	n = copy(buf.b[buf.w:], s)
	buf.w += n
	return
}

func (buf *Buffer) WriteByte(c byte) (err error) {
	if err = buf.Grow(1); err != nil {
		return
	}
	buf.b[buf.w] = c
	buf.w++
	return
}

// WriteBuffer appends the readable region of o. o is not consumed.
func (buf *Buffer) WriteBuffer(o *Buffer) (n int, err error) {
	n, err = buf.Write(o.Peek())
	return
}

// Read copies up to len(p) readable bytes into p and consumes them.
func (buf *Buffer) Read(p []byte) (n int, err error) {
	if buf.Len() == 0 {
		err = io.EOF
		return
	}
	if len(p) == 0 {
		return
	}
	n = copy(p, buf.b[buf.r:buf.w])
	buf.r += n
	return
}

// Next returns an owned copy of up to n readable bytes and consumes them.
func (buf *Buffer) Next(n int) (p []byte, err error) {
	if n < 1 {
		return
	}
	bLen := buf.Len()
	if bLen == 0 {
		err = io.EOF
		return
	}
	if n > bLen {
		n = bLen
	}
	p = make([]byte, n)
	copy(p, buf.b[buf.r:buf.r+n])
	buf.r += n
	return
}

// ReadBytes consumes up to and including the first occurrence of delim,
// returning an owned copy. Without a delimiter the whole readable region is
// consumed and io.EOF reported.
func (buf *Buffer) ReadBytes(delim byte) (line []byte, err error) {
	bLen := buf.Len()
	if bLen == 0 {
		err = io.EOF
		return
	}
	i := bytes.IndexByte(buf.b[buf.r:buf.w], delim)
	end := buf.r + i + 1
	if i < 0 {
		end = buf.w
		err = io.EOF
	}
	line = make([]byte, end-buf.r)
	copy(line, buf.b[buf.r:end])
	buf.r = end
	return
}

// grow makes space for n more writable bytes. When reclaiming the consumed
// prefix suffices, the readable region is compacted down to offset 0 with no
// allocation. Otherwise storage is reallocated, page-quantized, preserving
// all bytes at their current positions.
func (buf *Buffer) grow(n int) (err error) {
	if buf.Writable()+buf.Prependable() >= n {
		copy(buf.b, buf.b[buf.r:buf.w])
		buf.w -= buf.r
		buf.r = 0
		return
	}
	if buf.w > maxInt-n {
		err = errors.From(ErrTooLarge,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, "grow"),
		)
		return
	}
	defer func() {
		if recover() != nil {
			err = errors.From(ErrTooLarge,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, "grow"),
			)
		}
	}()
	adjustedSize := adjustBufferSize(buf.w + n + 1)
	nb := make([]byte, adjustedSize)
	copy(nb, buf.b[:buf.w])
	buf.b = nb
	return
}

func adjustBufferSize(n int) int {
	return int(math.Ceil(float64(n)/float64(pagesize)) * float64(pagesize))
}
