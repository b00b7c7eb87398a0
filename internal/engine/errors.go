package engine

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoProviders   = errors.New("no translation providers configured")
	ErrMissingTarget = errors.New("target language is required")
	ErrAllFailed     = errors.New("all translation providers failed")
)

// Code is the status a translation ends with. Only CodeSuccess means the
// output is usable.
type Code int

const (
	CodeSuccess Code = iota
	CodeFailed
	CodeNotConfigured
	CodeBadRequest
	CodeCanceled
)

func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeNotConfigured:
		return "not_configured"
	case CodeBadRequest:
		return "bad_request"
	case CodeCanceled:
		return "canceled"
	default:
		return "failed"
	}
}

// CodeOf maps an error returned by Translate to its Code.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, ErrNoProviders):
		return CodeNotConfigured
	case errors.Is(err, ErrMissingTarget):
		return CodeBadRequest
	case errors.Is(err, ErrAllFailed):
		return CodeFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeFailed
	}
}

// FailedError carries the per-provider errors of a request that produced
// no usable translation. It matches ErrAllFailed.
type FailedError struct {
	Errors []error
}

func (e *FailedError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return ErrAllFailed.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *FailedError) Is(target error) bool {
	return target == ErrAllFailed
}

func (e *FailedError) Unwrap() []error {
	return e.Errors
}
