package typedstream

import (
	"errors"
	"strings"
	"testing"

	"github.com/wesm/imsgvault/internal/testutil/dbtest"
)

func TestDecode(t *testing.T) {
	long := strings.Repeat("long message ", 30)

	tests := []struct {
		name string
		blob []byte
		want string
	}{
		{"short", dbtest.AttributedBody("Sent from the body"), "Sent from the body"},
		{"empty", dbtest.AttributedBody(""), ""},
		{"two-byte length", dbtest.AttributedBody(long), long},
		{"multibyte", dbtest.AttributedBody("héllo 👋"), "héllo 👋"},
		{"four-byte length", []byte("\x01+\x82\x05\x00\x00\x00hello\x86\x84"), "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.blob)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode_TerminatorFallback(t *testing.T) {
	// Length byte claims more than is available, so the end marker is used.
	blob := []byte("\x01+\x7fhello\x86\x84\x02iI")
	got, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "hello" {
		t.Errorf("Decode() = %q, want %q", got, "hello")
	}
}

func TestDecode_NoPayload(t *testing.T) {
	for _, blob := range [][]byte{nil, []byte("streamtyped"), []byte("\x01+\xff\xfe")} {
		if _, err := Decode(blob); !errors.Is(err, ErrNoString) {
			t.Errorf("Decode(%q) error = %v, want ErrNoString", blob, err)
		}
	}
}
