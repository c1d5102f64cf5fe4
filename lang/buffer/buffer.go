// Package buffer provides the incremental byte source consumed by the lexer.
//
// A [Buffer] is backed either by a stream, which is drained in [BlockSize]
// increments into an append-only cache as the cursor advances, or by a fixed
// byte slice copied in at construction. Offsets returned by [Buffer.Index]
// remain valid for the lifetime of the Buffer, which is what allows the
// evaluator to bookmark a position and seek back to it for every iteration of
// a loop.
package buffer

import (
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/readahead"

	"github.com/ardnew/tpt/pkg"
)

// BlockSize is the number of bytes requested from a stream each time the
// cache must grow.
const BlockSize = 4096

var (
	ErrOpen     = pkg.NewError("open input")
	ErrRead     = pkg.NewError("read input")
	ErrUnderrun = pkg.NewError("unget at start of buffer")
	ErrSeek     = pkg.NewError("seek beyond end of input")
	ErrRange    = pkg.NewError("invalid buffer range")
)

// Buffer is a rewindable byte source.
type Buffer struct {
	stream io.ReadCloser // nil once exhausted, or for memory-backed buffers
	closer io.Closer     // underlying file opened by Open
	err    error         // first non-EOF read error
	data   []byte
	index  int
}

// New returns a stream-backed Buffer reading from r.
// The reader is wrapped in a read-ahead reader so that disk or network
// latency overlaps with lexing.
func New(r io.Reader) *Buffer {
	return &Buffer{stream: readahead.NewReader(r)}
}

// Open returns a stream-backed Buffer reading the named file.
func Open(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrOpen.Wrap(err).With(slog.String("path", path))
	}

	b := New(f)
	b.closer = f

	return b, nil
}

// FromBytes returns a memory-backed Buffer holding a copy of p.
func FromBytes(p []byte) *Buffer {
	return &Buffer{data: append([]byte(nil), p...)}
}

// FromString returns a memory-backed Buffer holding s.
func FromString(s string) *Buffer {
	return &Buffer{data: []byte(s)}
}

// fill appends at most one block from the stream to the cache.
// It reports whether the stream is still active.
func (b *Buffer) fill() bool {
	if b.stream == nil {
		return false
	}

	if cap(b.data)-len(b.data) < BlockSize {
		grown := make([]byte, len(b.data), len(b.data)+BlockSize)
		copy(grown, b.data)
		b.data = grown
	}

	n, err := b.stream.Read(b.data[len(b.data) : len(b.data)+BlockSize])
	b.data = b.data[:len(b.data)+n]

	if err != nil {
		if err != io.EOF {
			b.err = ErrRead.Wrap(err)
		}

		b.release()

		return n > 0
	}

	return true
}

// release closes the stream and any file beneath it.
func (b *Buffer) release() {
	if b.stream != nil {
		_ = b.stream.Close()
		b.stream = nil
	}

	if b.closer != nil {
		_ = b.closer.Close()
		b.closer = nil
	}
}

// available fills the cache until index i is readable or the stream ends.
func (b *Buffer) available(i int) bool {
	for i >= len(b.data) {
		if !b.fill() && i >= len(b.data) {
			return false
		}
	}

	return true
}

// Next returns the byte at the cursor and advances it.
// It returns false once no more input exists.
func (b *Buffer) Next() (byte, bool) {
	if !b.available(b.index) {
		return 0, false
	}

	c := b.data[b.index]
	b.index++

	return c, true
}

// Peek returns the byte at the cursor without advancing it.
func (b *Buffer) Peek() (byte, bool) {
	if !b.available(b.index) {
		return 0, false
	}

	return b.data[b.index], true
}

// At returns the byte at absolute index i without moving the cursor.
func (b *Buffer) At(i int) (byte, bool) {
	if i < 0 || !b.available(i) {
		return 0, false
	}

	return b.data[i], true
}

// Unget moves the cursor back one byte.
func (b *Buffer) Unget() error {
	if b.index == 0 {
		return ErrUnderrun
	}

	b.index--

	return nil
}

// Seek moves the cursor to index, reading more input as necessary.
// Seeking to the end of all input is permitted. If index cannot be reached the
// cursor is left unchanged.
func (b *Buffer) Seek(index int) error {
	if index < 0 {
		return ErrSeek.With(slog.Int("index", index))
	}

	if index > 0 && !b.available(index-1) {
		return ErrSeek.With(slog.Int("index", index), slog.Int("size", len(b.data)))
	}

	b.index = index

	return nil
}

// Index returns the cursor position.
func (b *Buffer) Index() int { return b.index }

// Len returns the number of bytes read into the buffer so far.
func (b *Buffer) Len() int { return len(b.data) }

// Done reports whether the stream is exhausted and the cursor has consumed
// every byte.
func (b *Buffer) Done() bool {
	return b.stream == nil && b.index >= len(b.data)
}

// Err returns the first read error encountered, if any.
func (b *Buffer) Err() error { return b.err }

// Reset moves the cursor to the start of the buffer.
func (b *Buffer) Reset() { b.index = 0 }

// Bytes returns a copy of the bytes in [start, end).
func (b *Buffer) Bytes(start, end int) ([]byte, error) {
	if start < 0 || end < start || (end > 0 && !b.available(end-1)) {
		return nil, ErrRange.With(slog.Int("start", start), slog.Int("end", end))
	}

	return append([]byte(nil), b.data[start:end]...), nil
}

// Slice returns a new memory-backed Buffer over the bytes in [start, end).
func (b *Buffer) Slice(start, end int) (*Buffer, error) {
	p, err := b.Bytes(start, end)
	if err != nil {
		return nil, err
	}

	return &Buffer{data: p}, nil
}

// Close releases the stream backing the buffer. The cached bytes remain
// readable.
func (b *Buffer) Close() error {
	b.release()

	return nil
}
