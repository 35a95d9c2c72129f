package errs

import "fmt"

// HashMismatchError reports that a downloaded file's digest did not match
// the feed entry's hash map; the file has already been deleted by the
// caller.
type HashMismatchError struct {
	Base Error `json:"error"`

	URL       string `json:"url,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	Expected  string `json:"expected,omitempty"`
	Got       string `json:"got,omitempty"`
}

// NewHashMismatchError creates a HashMismatchError.
func NewHashMismatchError(url, algorithm, expected, got string) *HashMismatchError {
	return &HashMismatchError{
		Base: Error{
			Category: CategoryHashMismatch,
			Code:     CodeHashMismatch,
			Message:  "downloaded file failed hash verification",
			Hint:     "The download was corrupted or tampered with. It has been deleted; retry the install.",
		},
		URL:       url,
		Algorithm: algorithm,
		Expected:  expected,
		Got:       got,
	}
}

func (e *HashMismatchError) Error() string { return e.Base.Error() }
func (e *HashMismatchError) Unwrap() error { return e.Base.Cause }
func (e *HashMismatchError) Is(t error) bool {
	o, ok := t.(*HashMismatchError)
	return ok && e.Base.Code == o.Base.Code
}

// FilesInUseError reports that a destination or alias file could not be
// removed or overwritten because a process holds it open.
type FilesInUseError struct {
	Base Error `json:"error"`

	Paths []string `json:"paths,omitempty"`
}

// NewFilesInUseError creates a FilesInUseError for the given paths.
func NewFilesInUseError(paths []string, cause error) *FilesInUseError {
	return &FilesInUseError{
		Base: Error{
			Category: CategoryFilesInUse,
			Code:     CodeFilesInUse,
			Message:  fmt.Sprintf("%d file(s) could not be replaced", len(paths)),
			Hint:     "Close any running Python processes using this install and retry.",
			Cause:    cause,
		},
		Paths: paths,
	}
}

func (e *FilesInUseError) Error() string { return e.Base.Error() }
func (e *FilesInUseError) Unwrap() error { return e.Base.Cause }
func (e *FilesInUseError) Is(t error) bool {
	o, ok := t.(*FilesInUseError)
	return ok && e.Base.Code == o.Base.Code
}

// NoLauncherTemplateError reports that alias synthesis could not proceed
// for one install because no matching launcher template was found; this is
// a degraded failure — other aliases still sync.
type NoLauncherTemplateError struct {
	Base Error `json:"error"`

	InstallID string `json:"installId,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// NewNoLauncherTemplateError creates a NoLauncherTemplateError.
func NewNoLauncherTemplateError(installID, platform string) *NoLauncherTemplateError {
	return &NoLauncherTemplateError{
		Base: Error{
			Category: CategoryNoLauncherTemplate,
			Code:     CodeNoLauncherTemplate,
			Message:  fmt.Sprintf("no launcher template available for %s (%s)", installID, platform),
		},
		InstallID: installID,
		Platform:  platform,
	}
}

func (e *NoLauncherTemplateError) Error() string { return e.Base.Error() }
func (e *NoLauncherTemplateError) Unwrap() error { return e.Base.Cause }
func (e *NoLauncherTemplateError) Is(t error) bool {
	o, ok := t.(*NoLauncherTemplateError)
	return ok && e.Base.Code == o.Base.Code
}

// TerminalError wraps anything unexpected. It carries a reference to the
// log file written for this invocation and, when the root cause was an OS
// error, that error's numeric code.
type TerminalError struct {
	Base Error `json:"error"`

	LogFile     string `json:"logFile,omitempty"`
	OSErrorCode int    `json:"osErrorCode,omitempty"`
}

// NewTerminalError creates a TerminalError wrapping cause.
func NewTerminalError(cause error, logFile string, osErrorCode int) *TerminalError {
	return &TerminalError{
		Base: Error{
			Category: CategoryTerminal,
			Code:     CodeTerminal,
			Message:  "an unexpected error occurred",
			Cause:    cause,
		},
		LogFile:     logFile,
		OSErrorCode: osErrorCode,
	}
}

func (e *TerminalError) Error() string { return e.Base.Error() }
func (e *TerminalError) Unwrap() error { return e.Base.Cause }
func (e *TerminalError) Is(t error) bool {
	o, ok := t.(*TerminalError)
	return ok && e.Base.Code == o.Base.Code
}

// ExitCode returns the process exit code for a terminal error.
func (e *TerminalError) ExitCode() int {
	if e.OSErrorCode != 0 {
		return e.OSErrorCode
	}
	return 1
}
