package yamlutil_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-mailmark/internal/yamlutil"
)

type testConfig struct {
	Name    string `yaml:"name"`
	Count   int    `yaml:"count"`
	Enabled bool   `yaml:"enabled"`
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Parses YAML into Go structs, rejecting unknown fields
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
		check   func(t *testing.T, v any)
	}{
		{
			name: "valid YAML",
			data: []byte("name: test\ncount: 42\nenabled: true"),
			dest: &testConfig{},
			check: func(t *testing.T, v any) {
				cfg := v.(*testConfig)
				if cfg.Name != "test" {
					t.Errorf("Name = %q, want %q", cfg.Name, "test")
				}
				if cfg.Count != 42 {
					t.Errorf("Count = %d, want %d", cfg.Count, 42)
				}
				if !cfg.Enabled {
					t.Error("Enabled = false, want true")
				}
			},
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "empty data",
			data:    []byte{},
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("name: test"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
		{
			name:    "input too large",
			data:    bytes.Repeat([]byte("a"), yamlutil.MaxInputSize+1),
			dest:    &testConfig{},
			wantErr: yamlutil.ErrInputTooLarge,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, tt.dest)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UnmarshalStrict() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalStrict() unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, tt.dest)
			}
		})
	}
}

func TestUnmarshalStrictRejectsUnknownField(t *testing.T) {
	t.Parallel()

	data := []byte("name: test\nbogus: value")
	var cfg testConfig

	err := yamlutil.UnmarshalStrict(data, &cfg)
	if err == nil {
		t.Fatal("UnmarshalStrict() expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "yamlutil:") {
		t.Errorf("error %q should be wrapped with yamlutil prefix", err)
	}
}

func TestUnmarshalStrictInvalidSyntax(t *testing.T) {
	t.Parallel()

	data := []byte("name: [unclosed")
	var cfg testConfig

	if err := yamlutil.UnmarshalStrict(data, &cfg); err == nil {
		t.Fatal("UnmarshalStrict() expected error for invalid syntax, got nil")
	}
}

// ---------------------------------------------------------------------------
// TestMarshal - Serializes Go structs to YAML
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	cfg := testConfig{Name: "test", Count: 7, Enabled: true}

	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}

	out := string(data)
	for _, want := range []string{"name: test", "count: 7", "enabled: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("Marshal() output missing %q:\n%s", want, out)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	in := testConfig{Name: "roundtrip", Count: 3, Enabled: false}

	data, err := yamlutil.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}

	var out testConfig
	if err := yamlutil.UnmarshalStrict(data, &out); err != nil {
		t.Fatalf("UnmarshalStrict() unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
