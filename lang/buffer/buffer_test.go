package buffer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
)

func drain(b *Buffer) string {
	var sb strings.Builder

	for {
		c, ok := b.Next()
		if !ok {
			return sb.String()
		}

		sb.WriteByte(c)
	}
}

func TestBuffer_Sources(t *testing.T) {
	large := strings.Repeat("0123456789abcdef", BlockSize/4)

	dir := t.TempDir()
	path := filepath.Join(dir, "input.tpt")

	if err := os.WriteFile(path, []byte(large), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		make func(t *testing.T) *Buffer
		want string
	}{
		{
			name: "string",
			make: func(*testing.T) *Buffer { return FromString("hello") },
			want: "hello",
		},
		{
			name: "bytes",
			make: func(*testing.T) *Buffer { return FromBytes([]byte("world")) },
			want: "world",
		},
		{
			name: "stream spanning blocks",
			make: func(*testing.T) *Buffer { return New(strings.NewReader(large)) },
			want: large,
		},
		{
			name: "one byte reader",
			make: func(*testing.T) *Buffer {
				return New(iotest.OneByteReader(strings.NewReader("slow input")))
			},
			want: "slow input",
		},
		{
			name: "file",
			make: func(t *testing.T) *Buffer {
				b, err := Open(path)
				if err != nil {
					t.Fatalf("open: %v", err)
				}

				return b
			},
			want: large,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.make(t)
			defer b.Close()

			if got := drain(b); got != tt.want {
				t.Errorf("expected %d bytes, got %d", len(tt.want), len(got))
			}

			if !b.Done() {
				t.Error("expected Done after draining")
			}

			if _, ok := b.Next(); ok {
				t.Error("Next after end should report false")
			}
		})
	}
}

func TestBuffer_FromBytesCopies(t *testing.T) {
	src := []byte("abc")
	b := FromBytes(src)
	src[0] = 'x'

	if got := drain(b); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}

func TestBuffer_OpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestBuffer_Unget(t *testing.T) {
	b := FromString("ab")

	if err := b.Unget(); !errors.Is(err, ErrUnderrun) {
		t.Fatalf("expected ErrUnderrun at start, got %v", err)
	}

	c, _ := b.Next()
	if c != 'a' {
		t.Fatalf("expected 'a', got %q", c)
	}

	if err := b.Unget(); err != nil {
		t.Fatalf("unget: %v", err)
	}

	if c, _ := b.Next(); c != 'a' {
		t.Errorf("expected 'a' again, got %q", c)
	}
}

func TestBuffer_Seek(t *testing.T) {
	tests := []struct {
		name    string
		buf     func() *Buffer
		index   int
		wantErr bool
		next    byte
	}{
		{"memory within", func() *Buffer { return FromString("abcdef") }, 3, false, 'd'},
		{"memory end", func() *Buffer { return FromString("abc") }, 3, false, 0},
		{"memory beyond", func() *Buffer { return FromString("abc") }, 4, true, 'a'},
		{"negative", func() *Buffer { return FromString("abc") }, -1, true, 'a'},
		{"stream forces fill", func() *Buffer {
			return New(strings.NewReader(strings.Repeat("x", BlockSize) + "yz"))
		}, BlockSize + 1, false, 'z'},
		{"stream beyond", func() *Buffer { return New(strings.NewReader("abc")) }, 10, true, 'a'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.buf()
			defer b.Close()

			err := b.Seek(tt.index)
			if tt.wantErr {
				if !errors.Is(err, ErrSeek) {
					t.Fatalf("expected ErrSeek, got %v", err)
				}

				if b.Index() != 0 {
					t.Errorf("cursor moved to %d after failed seek", b.Index())
				}
			} else if err != nil {
				t.Fatalf("seek: %v", err)
			}

			c, ok := b.Next()
			if tt.next == 0 {
				if ok {
					t.Errorf("expected end of input, got %q", c)
				}

				return
			}

			if c != tt.next {
				t.Errorf("expected %q, got %q", tt.next, c)
			}
		})
	}
}

func TestBuffer_SliceAndBytes(t *testing.T) {
	b := New(strings.NewReader("prefix{body}suffix"))
	defer b.Close()

	s, err := b.Slice(7, 11)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}

	if got := drain(s); got != "body" {
		t.Errorf("expected %q, got %q", "body", got)
	}

	p, err := b.Bytes(0, 6)
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}

	if !bytes.Equal(p, []byte("prefix")) {
		t.Errorf("expected %q, got %q", "prefix", p)
	}

	if _, err := b.Bytes(5, 100); !errors.Is(err, ErrRange) {
		t.Errorf("expected ErrRange, got %v", err)
	}

	if b.Index() != 0 {
		t.Errorf("Slice must not move the cursor, index=%d", b.Index())
	}
}

func TestBuffer_ResetAndLen(t *testing.T) {
	b := FromString("xyz")
	_ = drain(b)

	b.Reset()

	if b.Index() != 0 || b.Len() != 3 {
		t.Errorf("got index=%d len=%d", b.Index(), b.Len())
	}

	if got := drain(b); got != "xyz" {
		t.Errorf("expected %q after reset, got %q", "xyz", got)
	}
}

func BenchmarkBuffer_Stream(b *testing.B) {
	input := strings.Repeat("template text ${x} ", 4096)

	for b.Loop() {
		buf := New(strings.NewReader(input))
		_ = drain(buf)
		_ = buf.Close()
	}
}
