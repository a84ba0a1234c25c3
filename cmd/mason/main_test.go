package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	tests := []struct {
		name         string
		args         []string
		expectedExit int
	}{
		{
			name:         "version command succeeds",
			args:         []string{"mason", "version"},
			expectedExit: 0,
		},
		{
			name:         "unknown command fails",
			args:         []string{"mason", "frobnicate"},
			expectedExit: 1,
		},
		{
			name:         "init fails without configuration",
			args:         []string{"mason", "init", "/nonexistent/mason-project"},
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			assert.Equal(t, tt.expectedExit, run())
		})
	}
}
