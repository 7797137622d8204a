package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/resilience"
)

// statusCoder is implemented by provider errors that know their HTTP status.
type statusCoder interface {
	HTTPStatusCode() int
}

// ClassifyError decides whether a generation failure counts against the
// breaker and whether another attempt could succeed.
func ClassifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var coded statusCoder
	if errors.As(err, &coded) {
		if isRetryableHTTPStatus(coded.HTTPStatusCode()) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	// SDK errors without a typed status still carry it in the message.
	lower := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "overloaded", "500", "502", "503", "504", "529", "timeout"} {
		if strings.Contains(lower, marker) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	for _, marker := range []string{"401", "403", "invalid api key", "unauthorized", "400"} {
		if strings.Contains(lower, marker) {
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}

	class := ClassifyError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, 529:
		return true
	default:
		return false
	}
}
