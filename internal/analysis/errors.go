package analysis

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies failures for callers that need to react differently to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyInput
	KindUnsupportedDocument
	KindExtractionFailed
	KindProviderUnavailable
	KindConfiguration
	KindInsufficientEvidence
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty_input"
	case KindUnsupportedDocument:
		return "unsupported_document"
	case KindExtractionFailed:
		return "extraction_failed"
	case KindProviderUnavailable:
		return "provider_unavailable"
	case KindConfiguration:
		return "configuration"
	case KindInsufficientEvidence:
		return "insufficient_evidence"
	case KindUnknown:
		return "internal"
	default:
		return "internal"
	}
}

// UserCorrectable reports whether the caller can fix the failure by changing the input.
func (k Kind) UserCorrectable() bool {
	switch k {
	case KindEmptyInput, KindUnsupportedDocument, KindExtractionFailed:
		return true
	case KindUnknown, KindProviderUnavailable, KindConfiguration, KindInsufficientEvidence:
		return false
	default:
		return false
	}
}

type kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// EmptyInputError reports a resume or job description with no usable content.
type EmptyInputError struct {
	Field   string
	Message string
}

func (e *EmptyInputError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("empty input: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("empty input: %s is empty", e.Field)
}

func (e *EmptyInputError) Kind() Kind { return KindEmptyInput }

// InputTooShortError reports input below the minimum length after cleaning.
type InputTooShortError struct {
	Field  string
	Length int
	Min    int
}

func (e *InputTooShortError) Error() string {
	return fmt.Sprintf("%s is too short: %d characters after cleaning, need at least %d", e.Field, e.Length, e.Min)
}

func (e *InputTooShortError) Kind() Kind { return KindEmptyInput }

// UnsupportedDocumentError reports an upload that is not a text-bearing format.
type UnsupportedDocumentError struct {
	MediaType string
}

func (e *UnsupportedDocumentError) Error() string {
	return fmt.Sprintf("unsupported document type %q: upload a PDF or plain text file", e.MediaType)
}

func (e *UnsupportedDocumentError) Kind() Kind { return KindUnsupportedDocument }

// ExtractionFailedError reports a document from which no usable text could be read.
type ExtractionFailedError struct {
	Message string
	Cause   error
}

func (e *ExtractionFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("text extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("text extraction failed: %s", e.Message)
}

func (e *ExtractionFailedError) Unwrap() error { return e.Cause }

func (e *ExtractionFailedError) Kind() Kind { return KindExtractionFailed }

// ProviderUnavailableError reports an unreachable or rate-limited collaborator.
type ProviderUnavailableError struct {
	Provider    string
	RateLimited bool
	RetryAfter  time.Duration
	Cause       error
}

func (e *ProviderUnavailableError) Error() string {
	msg := fmt.Sprintf("%s is unavailable", e.Provider)
	if e.RateLimited {
		msg = fmt.Sprintf("%s rate limit reached", e.Provider)
		if e.RetryAfter > 0 {
			msg += fmt.Sprintf(", retry after %s", e.RetryAfter.Round(time.Second))
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Cause }

func (e *ProviderUnavailableError) Kind() Kind { return KindProviderUnavailable }

// ConfigurationError reports missing credentials or settings for a required collaborator.
// Message must never carry secret values.
type ConfigurationError struct {
	Component string
	Message   string
	Cause     error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Component, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func (e *ConfigurationError) Kind() Kind { return KindConfiguration }

// InsufficientEvidenceError reports that fewer than the minimum number of specific tips could be produced.
type InsufficientEvidenceError struct {
	Produced int
	Required int
}

func (e *InsufficientEvidenceError) Error() string {
	return fmt.Sprintf("insufficient evidence: produced %d skill-specific tips, need %d", e.Produced, e.Required)
}

func (e *InsufficientEvidenceError) Kind() Kind { return KindInsufficientEvidence }
