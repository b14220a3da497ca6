package main

import "testing"

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantIn  string
		wantOut string
		hwloc   string
	}{
		{
			name:    "positional only",
			args:    []string{"in", "out"},
			wantIn:  "in",
			wantOut: "out",
		},
		{
			name:    "trailing hwloc dir",
			args:    []string{"in", "out", "--hwloc-dir", "hw"},
			wantIn:  "in",
			wantOut: "out",
			hwloc:   "hw",
		},
		{
			name:    "flags before positionals",
			args:    []string{"--config", "c.yaml", "--archive", "runs.db", "in", "out"},
			wantIn:  "in",
			wantOut: "out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args)
			if err != nil {
				t.Fatalf("parseArgs(%v) error = %v", tt.args, err)
			}
			if opts.inputDir != tt.wantIn || opts.outputDir != tt.wantOut {
				t.Errorf("dirs = (%q, %q), want (%q, %q)",
					opts.inputDir, opts.outputDir, tt.wantIn, tt.wantOut)
			}
			if opts.hwlocDir != tt.hwloc {
				t.Errorf("hwlocDir = %q, want %q", opts.hwlocDir, tt.hwloc)
			}
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := [][]string{
		{},
		{"in"},
		{"in", "out", "extra"},
		{"in", "out", "--hwloc-dir"},
		{"--config"},
	}
	for _, args := range tests {
		if _, err := parseArgs(args); err == nil {
			t.Errorf("parseArgs(%v) should fail", args)
		}
	}
}

func TestParseArgs_HelpAndVersion(t *testing.T) {
	opts, err := parseArgs([]string{"--help"})
	if err != nil || !opts.showHelp {
		t.Errorf("parseArgs(--help) = (%+v, %v)", opts, err)
	}
	opts, err = parseArgs([]string{"--version"})
	if err != nil || !opts.showVersion {
		t.Errorf("parseArgs(--version) = (%+v, %v)", opts, err)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	if got := run([]string{}); got != 1 {
		t.Errorf("run with no arguments = %d, want 1", got)
	}
	if got := run([]string{"/nonexistent/in", "/nonexistent/out"}); got != 2 {
		t.Errorf("run with missing directories = %d, want 2", got)
	}
	if got := run([]string{"--version"}); got != 0 {
		t.Errorf("run --version = %d, want 0", got)
	}
}
