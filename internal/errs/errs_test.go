package errs

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestError_UnwrapsKindAndCause(t *testing.T) {
	err := FS("write fragment", "/tmp/out/a.xml", fs.ErrPermission)

	if !errors.Is(err, ErrFilesystem) {
		t.Error("errors.Is(err, ErrFilesystem) = false, want true")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is(err, fs.ErrPermission) = false, want true")
	}
	if errors.Is(err, ErrMalformedDocument) {
		t.Error("errors.Is(err, ErrMalformedDocument) = true, want false")
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("errors.As(err, *Error) = false, want true")
	}
	if e.Path != "/tmp/out/a.xml" {
		t.Errorf("Path = %q, want %q", e.Path, "/tmp/out/a.xml")
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "with cause",
			err:  Malformed("parse", "a.xml", errors.New("unexpected EOF")),
			want: "failed to parse a.xml; unexpected EOF",
		},
		{
			name: "without cause",
			err:  New(ErrMissingSkeleton, "reassemble", "out/A", nil),
			want: "failed to reassemble out/A; missing skeleton",
		},
		{
			name: "without path",
			err:  Unsupported("select format", "", errors.New(`unknown format "csv"`)),
			want: `failed to select format; unknown format "csv"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NotFound("stat", "x", nil), "input_not_found"},
		{Malformed("parse", "x", nil), "malformed_document"},
		{Unsupported("select", "x", nil), "unsupported_format"},
		{FS("write", "x", nil), "filesystem"},
		{New(ErrMissingSkeleton, "find", "x", nil), "missing_skeleton"},
		{New(ErrInconsistentMetadata, "collapse", "x", nil), "inconsistent_metadata"},
		{errors.New("plain"), "unknown"},
		{errors.Join(errors.New("a"), FS("write", "x", nil)), "filesystem"},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestError_JoinedBatch(t *testing.T) {
	joined := errors.Join(
		Malformed("parse", "a.xml", errors.New("bad")),
		FS("write", "b/b.xml", errors.New("disk full")),
	)

	if !errors.Is(joined, ErrMalformedDocument) || !errors.Is(joined, ErrFilesystem) {
		t.Errorf("joined error lost a kind: %v", joined)
	}
	if !strings.Contains(joined.Error(), "b/b.xml") {
		t.Errorf("joined error = %q, want it to mention b/b.xml", joined.Error())
	}
}
