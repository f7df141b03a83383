package textutil

import (
	"testing"

	"github.com/wesm/imsgvault/internal/testutil"
)

func TestEnsureUTF8_AlreadyValid(t *testing.T) {
	for _, s := range []string{"", "Hello", "你好世界", "Привет", "See you 👋"} {
		if got := EnsureUTF8(s); got != s {
			t.Errorf("EnsureUTF8(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestEnsureUTF8_Windows1252(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"smart quote", []byte("Rand\x92s Opponent"), "Rand’s Opponent"},
		{"en dash", []byte("2020 \x96 2024"), "2020 – 2024"},
		{"double quotes", []byte("\x93Hello\x94"), "“Hello”"},
		{"euro", []byte("Price: \x80100"), "Price: €100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsureUTF8(string(tt.input))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			testutil.AssertValidUTF8(t, got)
		})
	}
}

func TestEnsureUTF8_Latin1(t *testing.T) {
	for _, input := range [][]byte{[]byte("Gar\xe7on"), []byte("M\xfcnchen"), []byte("25\xb0C")} {
		testutil.AssertValidUTF8(t, EnsureUTF8(string(input)))
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ok", "ok"},
		{"a\xffb", "a�b"},
		{"\xfe\xff", "��"},
	}
	for _, tt := range tests {
		if got := SanitizeUTF8(tt.input); got != tt.want {
			t.Errorf("SanitizeUTF8(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGetEncodingByName(t *testing.T) {
	for _, name := range []string{"windows-1252", "ISO-8859-1", "Shift_JIS", "EUC-KR", "GB18030", "Big5", "KOI8-R"} {
		if GetEncodingByName(name) == nil {
			t.Errorf("GetEncodingByName(%q) = nil", name)
		}
	}
	if GetEncodingByName("x-unknown") != nil {
		t.Error("unknown charset should return nil")
	}
}
