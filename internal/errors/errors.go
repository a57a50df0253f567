// Package errors maps domain failures onto the HTTP error taxonomy. Every
// response body is {"detail": "..."} and never carries backend text.
package errors

import (
	stderrors "errors"
	"net/http"

	"lookuply-search-api/internal/llm"
	"lookuply-search-api/internal/search"

	"github.com/ory/herodot"
	"go.uber.org/zap"
)

// ErrValidation marks a malformed request shape.
var ErrValidation = stderrors.New("validation failed")

// ValidationError carries a client-safe description of what was wrong.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation returns a ValidationError with the given detail.
func Validation(detail string) error {
	return &ValidationError{Detail: detail}
}

// Surface names the endpoint family an error is reported on. The same
// backend failure maps to different codes depending on where it happens.
type Surface int

const (
	SurfaceSearch Surface = iota
	SurfaceHealth
	SurfaceSummarize
	SurfaceChat
)

// Kind is a short, log-safe label for an error class.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindSearchUnavailable Kind = "search_unavailable"
	KindGenerationFailed  Kind = "generation_failed"
	KindInternal          Kind = "internal"
)

// KindOf classifies err without looking at its text.
func KindOf(err error) Kind {
	switch {
	case stderrors.Is(err, ErrValidation):
		return KindValidation
	case stderrors.Is(err, search.ErrUnavailable):
		return KindSearchUnavailable
	case stderrors.Is(err, llm.ErrGenerationFailed):
		return KindGenerationFailed
	default:
		return KindInternal
	}
}

// HTTPError pairs the herodot error written to the client with the domain
// error that caused it. Only the former is ever rendered.
type HTTPError struct {
	*herodot.DefaultError
	cause error
}

func (e *HTTPError) Unwrap() []error { return []error{e.DefaultError, e.cause} }

// Translate converts err into the error written for surface.
func Translate(err error, surface Surface) *HTTPError {
	return &HTTPError{DefaultError: translate(err, surface), cause: err}
}

func translate(err error, surface Surface) *herodot.DefaultError {
	switch KindOf(err) {
	case KindValidation:
		detail := "Invalid request"
		var v *ValidationError
		if stderrors.As(err, &v) && v.Detail != "" {
			detail = v.Detail
		}
		if surface == SurfaceChat {
			return herodot.ErrBadRequest.WithReason(detail)
		}
		return unprocessable(detail)
	case KindSearchUnavailable:
		switch surface {
		case SurfaceSearch:
			return unavailable("Search service unavailable")
		case SurfaceHealth:
			return unavailable("Search backend unavailable")
		}
	}
	return herodot.ErrInternalServerError.WithReason(failureDetail(surface))
}

func failureDetail(surface Surface) string {
	switch surface {
	case SurfaceSummarize:
		return "Summarization failed"
	case SurfaceChat:
		return "Search failed"
	default:
		return "Internal server error"
	}
}

func unprocessable(detail string) *herodot.DefaultError {
	return &herodot.DefaultError{
		CodeField:   http.StatusUnprocessableEntity,
		StatusField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:  "The request was well-formed but contains invalid fields",
		ReasonField: detail,
	}
}

func unavailable(detail string) *herodot.DefaultError {
	return &herodot.DefaultError{
		CodeField:   http.StatusServiceUnavailable,
		StatusField: http.StatusText(http.StatusServiceUnavailable),
		ErrorField:  "A backend service is unavailable",
		ReasonField: detail,
	}
}

// DetailResponse is the body of every error response.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// DetailEnhancer renders herodot errors as {"detail": reason}.
func DetailEnhancer(_ *http.Request, err error) interface{} {
	var e *herodot.DefaultError
	if stderrors.As(err, &e) {
		if e.ReasonField != "" {
			return &DetailResponse{Detail: e.ReasonField}
		}
		return &DetailResponse{Detail: e.ErrorField}
	}
	return &DetailResponse{Detail: "Internal server error"}
}

// Reporter logs error responses with their kind and status code only.
type Reporter struct {
	logger *zap.Logger
}

func NewReporter(logger *zap.Logger) *Reporter {
	return &Reporter{logger: logger.Named("errors")}
}

func (r *Reporter) ReportError(req *http.Request, code int, err error, _ ...interface{}) {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("code", code),
		zap.String("kind", string(KindOf(err))),
	}
	if code >= http.StatusInternalServerError {
		r.logger.Error("request failed", fields...)
		return
	}
	r.logger.Info("request rejected", fields...)
}

// NewWriter returns a herodot JSON writer wired to the detail body and the
// reporter.
func NewWriter(logger *zap.Logger) *herodot.JSONWriter {
	w := herodot.NewJSONWriter(NewReporter(logger))
	w.ErrorEnhancer = DetailEnhancer
	return w
}
