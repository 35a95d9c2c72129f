package shebang

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvDirective(t *testing.T) {
	d, err := Parse(bufio.NewReader(strings.NewReader("#!/usr/bin/env python3.13\nprint(1)\n")))
	require.NoError(t, err)
	assert.Equal(t, "python3.13", d.Token)
}

func TestParseEnvDashS(t *testing.T) {
	d, err := Parse(bufio.NewReader(strings.NewReader("#!/usr/bin/env -S python3.13 -I\n")))
	require.NoError(t, err)
	assert.Equal(t, "python3.13", d.Token)
	assert.Equal(t, "-I", d.Args)
}

func TestParsePathDirective(t *testing.T) {
	d, err := Parse(bufio.NewReader(strings.NewReader(`#!C:\Python313\python.exe -O` + "\n")))
	require.NoError(t, err)
	assert.Equal(t, "python", d.Token)
	assert.Equal(t, "-O", d.Args)
}

func TestParseBareDirective(t *testing.T) {
	d, err := Parse(bufio.NewReader(strings.NewReader("#!python3.13w\n")))
	require.NoError(t, err)
	assert.Equal(t, "python3.13w", d.Token)
}

func TestParseNoDirectiveIsError(t *testing.T) {
	_, err := Parse(bufio.NewReader(strings.NewReader("print(1)\n")))
	require.Error(t, err)
}

func TestNormalizeBareToken(t *testing.T) {
	tests := []struct {
		token     string
		wantRange string
		wantWin   bool
		wantOK    bool
	}{
		{"python", `PythonCore\default`, false, true},
		{"python3.13", `PythonCore\3.13`, false, true},
		{"python3.13w", `PythonCore\3.13`, true, true},
		{"py", `PythonCore\default`, false, true},
		{"pyw", `PythonCore\default`, true, true},
		{"notpython", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			r, w, ok := NormalizeBareToken(tt.token)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantRange, r)
				assert.Equal(t, tt.wantWin, w)
			}
		})
	}
}

func TestQuoteSplitRoundTrip(t *testing.T) {
	tests := [][]string{
		{"simple"},
		{"has space"},
		{`has"quote`},
		{`trailing\`},
		{`c:\path\to\file`},
		{"a", "b c", `d"e`, `f\`},
		{""},
		{`\\`, "b"},
	}
	for _, argv := range tests {
		cmdline := QuoteArgs(argv)
		got := SplitArgs(cmdline)
		assert.Equal(t, argv, got, "cmdline=%q", cmdline)
	}
}
