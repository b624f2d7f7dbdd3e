package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/reasm-dev/reasm/internal/analysis"
)

const (
	configurationMessage = "the service is misconfigured; contact the operator"
	internalMessage      = "internal error"
)

// HTTPStatus returns the status code for an analysis error.
func HTTPStatus(err error) int {
	switch analysis.KindOf(err) {
	case analysis.KindEmptyInput:
		return http.StatusBadRequest
	case analysis.KindUnsupportedDocument:
		return http.StatusUnsupportedMediaType
	case analysis.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case analysis.KindProviderUnavailable:
		var provider *analysis.ProviderUnavailableError
		if errors.As(err, &provider) && provider.RateLimited {
			return http.StatusTooManyRequests
		}
		return http.StatusServiceUnavailable
	case analysis.KindConfiguration, analysis.KindInsufficientEvidence:
		return http.StatusInternalServerError
	case analysis.KindUnknown:
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout
		case errors.Is(err, context.Canceled):
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the client-facing text for err. Configuration and internal
// failures get a generic message; provider failures never expose their cause.
func PublicMessage(err error) string {
	kind := analysis.KindOf(err)
	if kind.UserCorrectable() {
		var typed interface {
			error
			Kind() analysis.Kind
		}
		if errors.As(err, &typed) {
			return typed.Error()
		}
		return err.Error()
	}

	switch kind {
	case analysis.KindEmptyInput, analysis.KindUnsupportedDocument, analysis.KindExtractionFailed:
		return err.Error()
	case analysis.KindProviderUnavailable:
		var provider *analysis.ProviderUnavailableError
		if errors.As(err, &provider) {
			if provider.RateLimited {
				return fmt.Sprintf("%s rate limit reached; wait and retry", provider.Provider)
			}
			return fmt.Sprintf("%s is temporarily unavailable; retry shortly", provider.Provider)
		}
		return "an upstream service returned an unusable response; retry shortly"
	case analysis.KindConfiguration:
		return configurationMessage
	case analysis.KindInsufficientEvidence, analysis.KindUnknown:
		if errors.Is(err, context.DeadlineExceeded) {
			return "analysis timed out; retry with a shorter document"
		}
		return internalMessage
	default:
		return internalMessage
	}
}

// RetryAfter returns the Retry-After header value in whole seconds, or "".
func RetryAfter(err error) string {
	var provider *analysis.ProviderUnavailableError
	if !errors.As(err, &provider) || !provider.RateLimited || provider.RetryAfter <= 0 {
		return ""
	}
	return strconv.Itoa(int(math.Ceil(provider.RetryAfter.Seconds())))
}
