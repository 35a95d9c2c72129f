package errs

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders an error for CLI display.
type Formatter struct {
	NoColor bool
	Writer  io.Writer

	errorColor *color.Color
	codeColor  *color.Color
	hintColor  *color.Color
	exampleColor *color.Color
	dimColor   *color.Color
}

// NewFormatter creates a Formatter writing to w.
func NewFormatter(w io.Writer, noColor bool) *Formatter {
	if noColor {
		color.NoColor = true
	}
	return &Formatter{
		NoColor:      noColor,
		Writer:       w,
		errorColor:   color.New(color.FgRed, color.Bold),
		codeColor:    color.New(color.FgRed),
		hintColor:    color.New(color.FgGreen),
		exampleColor: color.New(color.FgBlue),
		dimColor:     color.New(color.FgHiBlack),
	}
}

func (f *Formatter) header(sb *strings.Builder, code Code, message string) {
	sb.WriteString(f.errorColor.Sprint("Error"))
	if code != "" {
		sb.WriteString(" ")
		sb.WriteString(f.codeColor.Sprintf("[%s]", code))
	}
	sb.WriteString(f.errorColor.Sprint(": "))
	sb.WriteString(message)
	sb.WriteString("\n")
}

// Format renders err for the CLI, dispatching on its concrete type.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}
	var sb strings.Builder

	var argErr *ArgumentError
	var noInstallErr *NoInstallFoundError
	var noInstallsErr *NoInstallsError
	var autoDisabledErr *AutomaticInstallDisabledError
	var hashErr *HashMismatchError
	var inUseErr *FilesInUseError
	var launcherErr *NoLauncherTemplateError
	var termErr *TerminalError
	var baseErr *Error

	switch {
	case errors.As(err, &argErr):
		f.header(&sb, argErr.Base.Code, argErr.Base.Message)
		f.hintAndExample(&sb, &argErr.Base)
	case errors.As(err, &noInstallErr):
		f.header(&sb, noInstallErr.Base.Code, noInstallErr.Base.Message)
		f.hintAndExample(&sb, &noInstallErr.Base)
	case errors.As(err, &noInstallsErr):
		f.header(&sb, noInstallsErr.Base.Code, noInstallsErr.Base.Message)
		f.hintAndExample(&sb, &noInstallsErr.Base)
	case errors.As(err, &autoDisabledErr):
		f.header(&sb, autoDisabledErr.Base.Code, autoDisabledErr.Base.Message)
		f.hintAndExample(&sb, &autoDisabledErr.Base)
	case errors.As(err, &hashErr):
		f.header(&sb, hashErr.Base.Code, hashErr.Base.Message)
		if hashErr.URL != "" {
			sb.WriteString("  ")
			sb.WriteString(f.dimColor.Sprint("URL:      "))
			sb.WriteString(hashErr.URL)
			sb.WriteString("\n")
		}
		if hashErr.Expected != "" {
			sb.WriteString("  ")
			sb.WriteString(f.dimColor.Sprint("Expected: "))
			sb.WriteString(hashErr.Expected)
			sb.WriteString("\n")
			sb.WriteString("  ")
			sb.WriteString(f.dimColor.Sprint("Got:      "))
			sb.WriteString(hashErr.Got)
			sb.WriteString("\n")
		}
		f.hintAndExample(&sb, &hashErr.Base)
	case errors.As(err, &inUseErr):
		f.header(&sb, inUseErr.Base.Code, inUseErr.Base.Message)
		for _, p := range inUseErr.Paths {
			sb.WriteString("  ")
			sb.WriteString(f.dimColor.Sprint(p))
			sb.WriteString("\n")
		}
		f.hintAndExample(&sb, &inUseErr.Base)
	case errors.As(err, &launcherErr):
		f.header(&sb, launcherErr.Base.Code, launcherErr.Base.Message)
		f.hintAndExample(&sb, &launcherErr.Base)
	case errors.As(err, &termErr):
		f.header(&sb, termErr.Base.Code, termErr.Base.Message)
		if termErr.LogFile != "" {
			sb.WriteString("  ")
			sb.WriteString(f.dimColor.Sprint("Log file: "))
			sb.WriteString(termErr.LogFile)
			sb.WriteString("\n")
		}
		if termErr.Base.Cause != nil {
			sb.WriteString("  ")
			sb.WriteString(f.dimColor.Sprint("Cause: "))
			sb.WriteString(termErr.Base.Cause.Error())
			sb.WriteString("\n")
		}
	case errors.As(err, &baseErr):
		f.header(&sb, baseErr.Code, baseErr.Message)
		f.hintAndExample(&sb, baseErr)
	default:
		sb.WriteString(f.errorColor.Sprint("Error: "))
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatJSON renders err as machine-readable JSON.
func (f *Formatter) FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return nil, nil
	}
	return json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
}

func (f *Formatter) hintAndExample(sb *strings.Builder, err *Error) {
	if err.Hint != "" {
		sb.WriteString("\n")
		sb.WriteString(f.hintColor.Sprint("Hint: "))
		sb.WriteString(err.Hint)
		sb.WriteString("\n")
	}
	if err.Example != "" {
		sb.WriteString("\n")
		sb.WriteString(f.exampleColor.Sprint("Example:\n"))
		sb.WriteString(err.Example)
		sb.WriteString("\n")
	}
}
