package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/louisbranch/estimate.space/internal/platform/errors/i18n"
	"golang.org/x/text/language"
)

// Error carries a Code for clients, an internal message for logs and the
// template values used to localise the code.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// With attaches a template value and returns e for chaining.
func (e *Error) With(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string, 1)
	}
	e.Metadata[key] = value
	return e
}

// New creates an error for code with a formatted internal message.
func New(code Code, format string, args ...any) *Error {
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Message: format}
}

// Wrap creates an error for code around cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// LocalizedMessage renders the client-facing text for err in tag.
func LocalizedMessage(err error, tag language.Tag) string {
	if err == nil {
		return ""
	}
	return i18n.GetCatalog(tag).Format(string(CodeOf(err)), MetadataOf(err))
}

// CodeOf returns the code in err's chain, or CodeUnknown when there is none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// MetadataOf returns the template values in err's chain, if any.
func MetadataOf(err error) map[string]string {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Metadata
	}
	return nil
}
