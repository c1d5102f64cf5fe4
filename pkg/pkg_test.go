package pkg

import (
	"errors"
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	expected := "tpt"
	if Name != expected {
		t.Errorf("Expected Name to be %q, got %q", expected, Name)
	}
}

func TestVersion(t *testing.T) {
	// Version is embedded from VERSION file in this package directory.
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version() != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version())
	}
}

func TestFullName(t *testing.T) {
	got := FullName()
	if !strings.HasPrefix(got, Library+" ") {
		t.Errorf("FullName() = %q, want prefix %q", got, Library)
	}

	if !strings.HasSuffix(got, "Version "+Version()) {
		t.Errorf("FullName() = %q, want version suffix", got)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Error("Expected Author to have at least one entry")
	}

	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain %q", "ardnew")
	}

	if got := AuthorNames(); !strings.Contains(got, "ardnew") {
		t.Errorf("AuthorNames() = %q", got)
	}
}

func TestError_Is(t *testing.T) {
	sentinel := NewError("sentinel")
	other := NewError("sentinel")

	wrapped := sentinel.Wrap(errors.New("boom")).With(slog.Int("line", 3))

	if !errors.Is(wrapped, sentinel) {
		t.Error("derived error should match its sentinel")
	}

	if errors.Is(wrapped, other) {
		t.Error("derived error should not match a distinct sentinel with the same message")
	}

	if got, want := wrapped.Error(), "sentinel: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if len(wrapped.Attrs()) != 1 {
		t.Errorf("expected 1 attr, got %d", len(wrapped.Attrs()))
	}

	if len(sentinel.Attrs()) != 0 {
		t.Error("With must not mutate the sentinel")
	}
}

func TestWrapError(t *testing.T) {
	sentinel := NewError("sentinel")

	if got := WrapError(sentinel.Wrap(errors.New("x"))); !errors.Is(got, sentinel) {
		t.Error("WrapError should return the existing *Error")
	}

	plain := errors.New("plain")
	if got := WrapError(plain); got.Error() != "plain" || !errors.Is(got, plain) {
		t.Errorf("WrapError(plain) = %q", got.Error())
	}
}
