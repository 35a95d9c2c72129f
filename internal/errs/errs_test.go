package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsByCode(t *testing.T) {
	a := NewNoInstallFoundError("3.13")
	b := NewNoInstallFoundError("3.12")
	assert.True(t, errors.Is(a, b), "both carry CodeNoInstallFound")
}

func TestHashMismatchErrorFields(t *testing.T) {
	err := NewHashMismatchError("https://example.test/py.zip", "sha256", "aaa", "bbb")
	assert.Equal(t, CategoryHashMismatch, err.Base.Category)
	assert.Contains(t, err.Error(), "hash verification")
}

func TestTerminalErrorExitCode(t *testing.T) {
	withCode := NewTerminalError(errors.New("boom"), "C:/log.txt", 5)
	assert.Equal(t, 5, withCode.ExitCode())

	withoutCode := NewTerminalError(errors.New("boom"), "C:/log.txt", 0)
	assert.Equal(t, 1, withoutCode.ExitCode())
}

func TestFormatterFormatsKnownTypes(t *testing.T) {
	f := NewFormatter(nil, true)
	out := f.Format(NewNoInstallsError())
	assert.Contains(t, out, "no Python installs")
}
