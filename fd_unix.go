//go:build unix

package bytebuffers

import (
	"os"

	"golang.org/x/sys/unix"
)

// scratchSize is the transient overflow capture used by ReadFromFd. It lives
// on the stack of the call, never in the Buffer.
const scratchSize = 64 * 1024

// ReadFromFd transfers bytes from fd into the buffer with one scatter read.
//
// The read targets the writable region first and a transient 64 KiB scratch
// area second, so a buffer with enough free space never grows, while a larger
// read costs one extra copy proportional to the actual overflow only. On a
// descriptor error the cursors are untouched and the wrapped errno returned;
// with a non-blocking fd that includes unix.EAGAIN. A zero count on a stream
// descriptor means end of stream.
func (buf *Buffer) ReadFromFd(fd int) (n int, err error) {
	var scratch [scratchSize]byte
	writable := buf.Writable()
	vec := [2][]byte{buf.b[buf.w:], scratch[:]}
	n, readErr := unix.Readv(fd, vec[:])
	if readErr != nil {
		n = 0
		err = os.NewSyscallError("readv", readErr)
		return
	}
	if n <= writable {
		buf.w += n
		return
	}
	// writable region filled exactly, remainder landed in scratch
	buf.w = len(buf.b)
	if _, growErr := buf.Write(scratch[:n-writable]); growErr != nil {
		n = writable
		err = growErr
	}
	return
}

// WriteToFd writes as many readable bytes as fd accepts in one call and
// consumes exactly that many. Partial writes are expected: the caller
// re-invokes on the remaining Len(). On a descriptor error the cursors are
// untouched and the wrapped errno returned.
func (buf *Buffer) WriteToFd(fd int) (n int, err error) {
	if buf.Len() == 0 {
		return
	}
	n, writeErr := unix.Write(fd, buf.b[buf.r:buf.w])
	if writeErr != nil {
		n = 0
		err = os.NewSyscallError("write", writeErr)
		return
	}
	buf.r += n
	return
}
