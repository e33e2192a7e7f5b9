package process

import (
	"errors"
	"slices"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"--port 5001", []string{"--port", "5001"}},
		{"  --host   127.0.0.1  ", []string{"--host", "127.0.0.1"}},
		{`--name "my backend"`, []string{"--name", "my backend"}},
		{`--name 'it"s'`, []string{"--name", `it"s`}},
		{`--path C:\\data`, []string{"--path", `C:\data`}},
		{`hello\ world`, []string{"hello world"}},
		{`--path 'C:\data\x'`, []string{"--path", `C:\data\x`}},
		{`"C:\\dir\\a b"`, []string{`C:\dir\a b`}},
		{`--empty ""`, []string{"--empty", ""}},
		{"a\tb", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SplitArgs(tt.in)
			if err != nil {
				t.Fatalf("SplitArgs(%q) error = %v", tt.in, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("SplitArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitArgsUnclosedQuote(t *testing.T) {
	if _, err := SplitArgs(`--name "oops`); !errors.Is(err, ErrUnclosedQuote) {
		t.Errorf("SplitArgs() error = %v, want ErrUnclosedQuote", err)
	}
}
