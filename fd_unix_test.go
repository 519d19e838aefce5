//go:build unix

package bytebuffers_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/brickingsoft/bytebuffers"
	"golang.org/x/sys/unix"
)

func pipe(t *testing.T) (r int, w int) {
	t.Helper()
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = unix.Close(p[0])
		_ = unix.Close(p[1])
	})
	return p[0], p[1]
}

func TestBuffer_ReadFromFd(t *testing.T) {
	r, w := pipe(t)
	if _, err := unix.Write(w, []byte("0123456789")); err != nil {
		t.Fatal(err)
	}
	buf := bytebuffers.NewWithSize(32)
	n, err := buf.ReadFromFd(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 || buf.Len() != 10 {
		t.Fatal(n, buf.Len())
	}
	if string(buf.Peek()) != "0123456789" {
		t.Fatal("peek:", string(buf.Peek()))
	}
	if buf.Cap() != 32 {
		t.Fatal("read within writable space grew storage:", buf.Cap())
	}
}

func TestBuffer_ReadFromFd_ExactFill(t *testing.T) {
	r, w := pipe(t)
	if _, err := unix.Write(w, []byte("abcd")); err != nil {
		t.Fatal(err)
	}
	buf := bytebuffers.NewWithSize(4)
	n, err := buf.ReadFromFd(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 || buf.Writable() != 0 || buf.Cap() != 4 {
		t.Fatal(n, buf.Writable(), buf.Cap())
	}
	if string(buf.Peek()) != "abcd" {
		t.Fatal("peek:", string(buf.Peek()))
	}
}

func TestBuffer_ReadFromFd_Overflow(t *testing.T) {
	r, w := pipe(t)
	payload := []byte(strings.Repeat("0123456789", 100))
	if _, err := unix.Write(w, payload); err != nil {
		t.Fatal(err)
	}
	buf := bytebuffers.NewWithSize(4)
	n, err := buf.ReadFromFd(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(payload) || buf.Len() != len(payload) {
		t.Fatal(n, buf.Len())
	}
	if !bytes.Equal(buf.Peek(), payload) {
		t.Fatal("overflow read lost or duplicated bytes")
	}
}

func TestBuffer_ReadFromFd_Error(t *testing.T) {
	buf := bytebuffers.NewWithSize(8)
	_, _ = buf.WriteString("ab")
	n, err := buf.ReadFromFd(-1)
	if err == nil {
		t.Fatal("read from invalid fd succeeded")
	}
	if !errors.Is(err, unix.EBADF) {
		t.Fatal(err)
	}
	if n != 0 || buf.Len() != 2 || string(buf.Peek()) != "ab" {
		t.Fatal("failed read mutated cursors")
	}
}

func TestBuffer_ReadFromFd_EOF(t *testing.T) {
	r, w := pipe(t)
	_ = unix.Close(w)
	buf := bytebuffers.NewWithSize(8)
	n, err := buf.ReadFromFd(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Fatal(n, buf.Len())
	}
}

func TestBuffer_WriteToFd(t *testing.T) {
	r, w := pipe(t)
	buf := bytebuffers.New()
	_, _ = buf.WriteString("0123456789")
	n, err := buf.WriteToFd(w)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 || buf.Len() != 0 {
		t.Fatal(n, buf.Len())
	}
	p := make([]byte, 16)
	rn, rErr := unix.Read(r, p)
	if rErr != nil {
		t.Fatal(rErr)
	}
	if string(p[:rn]) != "0123456789" {
		t.Fatal("read:", string(p[:rn]))
	}
}

func TestBuffer_WriteToFd_Partial(t *testing.T) {
	r, w := pipe(t)
	if err := unix.SetNonblock(w, true); err != nil {
		t.Fatal(err)
	}
	if err := unix.SetNonblock(r, true); err != nil {
		t.Fatal(err)
	}
	payload := []byte(strings.Repeat("0123456789abcdef", 1<<16)) // 1 MiB
	buf := bytebuffers.New()
	_, _ = buf.Write(payload)

	got := make([]byte, 0, len(payload))
	sink := make([]byte, 1<<16)
	partial := false
	for buf.Len() > 0 {
		before := buf.Len()
		n, err := buf.WriteToFd(w)
		if err != nil {
			if !errors.Is(err, unix.EAGAIN) {
				t.Fatal(err)
			}
			if buf.Len() != before {
				t.Fatal("failed write mutated cursors")
			}
		} else {
			if buf.Len() != before-n {
				t.Fatal("write advanced read cursor by", before-buf.Len(), "want", n)
			}
			if n < before {
				partial = true
			}
		}
		for {
			rn, rErr := unix.Read(r, sink)
			if rErr != nil || rn == 0 {
				break
			}
			got = append(got, sink[:rn]...)
		}
	}
	for len(got) < len(payload) {
		rn, rErr := unix.Read(r, sink)
		if rErr != nil || rn == 0 {
			break
		}
		got = append(got, sink[:rn]...)
	}
	if !partial {
		t.Log("pipe accepted the whole payload at once, partial path not hit")
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("drained bytes mismatched payload:", len(got), len(payload))
	}
}

func TestBuffer_WriteToFd_Empty(t *testing.T) {
	_, w := pipe(t)
	buf := bytebuffers.New()
	n, err := buf.WriteToFd(w)
	if err != nil || n != 0 {
		t.Fatal(n, err)
	}
}

func TestBuffer_WriteToFd_Error(t *testing.T) {
	buf := bytebuffers.New()
	_, _ = buf.WriteString("abc")
	n, err := buf.WriteToFd(-1)
	if err == nil {
		t.Fatal("write to invalid fd succeeded")
	}
	if !errors.Is(err, unix.EBADF) {
		t.Fatal(err)
	}
	if n != 0 || buf.Len() != 3 {
		t.Fatal("failed write mutated cursors")
	}
}
