package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrStorage       = errors.New("storage failure")
	ErrDelivery      = errors.New("delivery failure")
)

// Kind names the failure class an error belongs to. Kinds drive log fields
// and operator hints; none of them stop the scheduler.
type Kind string

const (
	KindFetch         Kind = "fetch"
	KindMetadata      Kind = "metadata"
	KindSend          Kind = "send"
	KindLedger        Kind = "ledger"
	KindConfiguration Kind = "configuration"
	KindCanceled      Kind = "canceled"
	KindUnknown       Kind = "unknown"
)

// Wrap builds an error message that includes component context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error onto the failure taxonomy. Errors without a marker
// are reported as KindUnknown.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrStorage):
		return KindLedger
	case errors.Is(err, ErrDelivery):
		return KindSend
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return KindMetadata
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return KindFetch
	default:
		return KindUnknown
	}
}

// Hint returns a short operator hint for a failure kind.
func Hint(kind Kind) string {
	switch kind {
	case KindFetch:
		return "check network access to the catalog; the item is retried next pass"
	case KindMetadata:
		return "the catalog returned no usable data; the item is retried next pass"
	case KindSend:
		return "check the webhook URL for this category; the item is retried next pass"
	case KindLedger:
		return "check ledger storage; the item may be announced again"
	case KindConfiguration:
		return "fix the configuration file or environment"
	default:
		return "check logs for details"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
