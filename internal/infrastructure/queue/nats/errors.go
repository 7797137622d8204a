package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/resilience"
)

// publishFailure sorts a publish error by what the caller can do about it.
type publishFailure int

const (
	failureOther publishFailure = iota
	// the server is briefly unreachable; the client is reconnecting
	failureTransient
	// the connection is closed or draining and will not come back in this process
	failureConnectionGone
	// the message itself was refused; resending cannot help
	failureRejected
	failureCancelled
	failureCircuitOpen
)

func classifyPublishFailure(err error) publishFailure {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return failureCancelled
	case resilience.IsCircuitOpen(err):
		return failureCircuitOpen
	case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrConnectionDraining):
		return failureConnectionGone
	case errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrDisconnected),
		errors.Is(err, nats.ErrConnectionReconnecting):
		return failureTransient
	case errors.Is(err, nats.ErrMaxPayload), errors.Is(err, nats.ErrBadSubject):
		return failureRejected
	default:
		return failureOther
	}
}

// classifyPublishError feeds the executor: only transient failures are
// retried, and refused or cancelled publishes do not trip the breaker.
func classifyPublishError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	switch classifyPublishFailure(err) {
	case failureTransient:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case failureRejected, failureCancelled:
		return resilience.ErrorClassification{}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// publishError marks failures that mean "queue unavailable" as temporary so
// the API answers 503 instead of 500.
func publishError(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	switch classifyPublishFailure(err) {
	case failureTransient, failureConnectionGone, failureCircuitOpen:
		return domain.WrapError(domain.ErrTemporary, "publish job", err)
	default:
		return err
	}
}
