package enums

import "fmt"

// OutboxDLQErrorReason records why the publisher abandoned an event.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	// OutboxDLQReasonUnroutable marks rows whose type or payload has no topic.
	OutboxDLQReasonUnroutable OutboxDLQErrorReason = "unroutable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable, OutboxDLQReasonUnroutable:
		return true
	}
	return false
}

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	r := OutboxDLQErrorReason(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid outbox dlq reason %q", value)
	}
	return r, nil
}
