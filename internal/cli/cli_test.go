package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name         string
		args         []string
		wantExit     bool
		wantCode     int
		wantConfig   string
		wantCommand  string
		wantArgs     []string
		wantStateDir string
		wantFormat   string
	}{
		{name: "defaults", args: []string{"plan"}, wantConfig: "fgdeps.hcl", wantCommand: "plan", wantArgs: []string{}, wantFormat: "text"},
		{name: "shorthand config", args: []string{"-c", "drv", "verify"}, wantConfig: "drv", wantCommand: "verify", wantArgs: []string{}, wantFormat: "text"},
		{
			name:         "integrate with options",
			args:         []string{"-config", "x.hcl", "-state-dir", "st", "-log-format", "JSON", "integrate", "a.swift", "b.swift"},
			wantConfig:   "x.hcl",
			wantCommand:  "integrate",
			wantArgs:     []string{"a.swift", "b.swift"},
			wantStateDir: "st",
			wantFormat:   "json",
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no command", args: []string{}, wantExit: true},
		{name: "unknown flag", args: []string{"-nope"}, wantCode: 2},
		{name: "bad log format", args: []string{"-log-format", "xml", "plan"}, wantCode: 2},
		{name: "bad log level", args: []string{"-log-level", "loud", "plan"}, wantCode: 2},
		{name: "unknown command", args: []string{"build"}, wantCode: 2},
		{name: "integrate without inputs", args: []string{"integrate"}, wantCode: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}

			cfg, exit, err := Parse(tc.args, out)

			if tc.wantCode != 0 {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				return
			}
			require.NoError(t, err)
			if tc.wantExit {
				assert.True(t, exit)
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.False(t, exit)
			assert.Equal(t, tc.wantConfig, cfg.ConfigPath)
			assert.Equal(t, tc.wantCommand, cfg.Command)
			assert.Equal(t, tc.wantArgs, cfg.Args)
			assert.Equal(t, tc.wantStateDir, cfg.StateDir)
			assert.Equal(t, tc.wantFormat, cfg.LogFormat)
		})
	}
}
