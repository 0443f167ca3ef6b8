package main

import (
	"testing"
)

// ---------------------------------------------------------------------------
// TestParseAnnotateFlags - CLI flag parsing
// ---------------------------------------------------------------------------

func TestParseAnnotateFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, f *annotateFlags, positional []string)
		wantErr bool
	}{
		{
			name: "no flags",
			args: []string{"template.html"},
			check: func(t *testing.T, f *annotateFlags, positional []string) {
				if len(positional) != 1 || positional[0] != "template.html" {
					t.Errorf("positional = %v, want [template.html]", positional)
				}
				if f.marginCm != marginSentinel {
					t.Errorf("marginCm = %v, want sentinel %v", f.marginCm, marginSentinel)
				}
				if f.workers != 0 {
					t.Errorf("workers = %d, want 0", f.workers)
				}
			},
		},
		{
			name: "long flags",
			args: []string{
				"--config", "team", "--output", "out", "--workers", "3",
				"--timeout", "45s", "--page-size", "letter",
				"--orientation", "portrait", "--margin", "2.5",
				"templates/",
			},
			check: func(t *testing.T, f *annotateFlags, positional []string) {
				if f.config != "team" {
					t.Errorf("config = %q, want %q", f.config, "team")
				}
				if f.output != "out" {
					t.Errorf("output = %q, want %q", f.output, "out")
				}
				if f.workers != 3 {
					t.Errorf("workers = %d, want 3", f.workers)
				}
				if f.timeout != "45s" {
					t.Errorf("timeout = %q, want %q", f.timeout, "45s")
				}
				if f.pageSize != "letter" {
					t.Errorf("pageSize = %q, want %q", f.pageSize, "letter")
				}
				if f.orientation != "portrait" {
					t.Errorf("orientation = %q, want %q", f.orientation, "portrait")
				}
				if f.marginCm != 2.5 {
					t.Errorf("marginCm = %v, want 2.5", f.marginCm)
				}
				if len(positional) != 1 || positional[0] != "templates/" {
					t.Errorf("positional = %v, want [templates/]", positional)
				}
			},
		},
		{
			name: "short flags",
			args: []string{"-c", "team", "-o", "out", "-w", "2", "-t", "1m", "-p", "legal", "-q", "-v", "in.html"},
			check: func(t *testing.T, f *annotateFlags, positional []string) {
				if f.config != "team" || f.output != "out" || f.workers != 2 {
					t.Errorf("short flags not parsed: %+v", f)
				}
				if f.timeout != "1m" || f.pageSize != "legal" {
					t.Errorf("short flags not parsed: %+v", f)
				}
				if !f.quiet || !f.verbose {
					t.Error("quiet and verbose should both be set")
				}
			},
		},
		{
			name: "output mode toggles",
			args: []string{"--no-json", "--no-preview", "--no-pdf", "in.html"},
			check: func(t *testing.T, f *annotateFlags, positional []string) {
				if !f.noJSON || !f.noPreview || !f.noPDF {
					t.Errorf("toggles not parsed: %+v", f)
				}
			},
		},
		{
			name: "explicit zero margin distinct from unset",
			args: []string{"--margin", "0", "in.html"},
			check: func(t *testing.T, f *annotateFlags, positional []string) {
				if f.marginCm != 0 {
					t.Errorf("marginCm = %v, want 0", f.marginCm)
				}
			},
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: true,
		},
		{
			name:    "invalid workers value",
			args:    []string{"--workers", "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, positional, err := parseAnnotateFlags(tt.args)

			if tt.wantErr {
				if err == nil {
					t.Fatal("parseAnnotateFlags() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAnnotateFlags() unexpected error: %v", err)
			}
			tt.check(t, f, positional)
		})
	}
}
