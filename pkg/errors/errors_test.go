package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestWithRetryAfterPopulatesDetails(t *testing.T) {
	err := New(CodeRateLimit, "generation limit reached").WithRetryAfter(1500 * time.Millisecond)
	if err.RetryAfter() != 1500*time.Millisecond {
		t.Fatalf("unexpected retry after %v", err.RetryAfter())
	}
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected map details, got %T", err.Details())
	}
	if details["retry_after_seconds"] != 2 {
		t.Fatalf("expected retry_after_seconds rounded up to 2, got %v", details["retry_after_seconds"])
	}
}

func TestWithRetryAfterKeepsExplicitDetails(t *testing.T) {
	err := New(CodeRateLimit, "slow down").
		WithDetails(map[string]any{"scope": "imagegen"}).
		WithRetryAfter(10 * time.Second)
	details := err.Details().(map[string]any)
	if _, ok := details["retry_after_seconds"]; ok {
		t.Fatalf("explicit details should not be overwritten: %v", details)
	}
	if RetryAfterSeconds(err.RetryAfter()) != 10 {
		t.Fatalf("expected 10 seconds, got %d", RetryAfterSeconds(err.RetryAfter()))
	}
}

func TestDumpFieldsForPostgresError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_payment_intent_key", TableName: "orders"}
	err := Wrap(CodeConflict, fmt.Errorf("insert order: %w", pgErr), "order already exists")

	fields := Dump(err).Fields()
	if fields["error_code"] != string(CodeConflict) {
		t.Fatalf("expected conflict code, got %v", fields["error_code"])
	}
	if fields["pg_code"] != "23505" || fields["pg_constraint"] != "orders_payment_intent_key" {
		t.Fatalf("expected postgres fields, got %v", fields)
	}
	if _, ok := fields["pg_detail"]; ok {
		t.Fatal("empty postgres fields must be omitted")
	}
}

func TestDumpFlagsTimeouts(t *testing.T) {
	err := fmt.Errorf("stripe call: %w", context.DeadlineExceeded)
	if !Dump(err).Timeout {
		t.Fatal("expected deadline errors to be flagged")
	}
	if Dump(nil).Fields()["error"] != "" {
		t.Fatal("nil dump should carry an empty message")
	}
}

func TestClassifyKeepsTypedErrors(t *testing.T) {
	limited := New(CodeRateLimit, "slow down")
	wrapped := fmt.Errorf("generate: %w", limited)
	if got := Classify(wrapped, CodeDependency, "provider"); got != wrapped {
		t.Fatalf("expected typed error to pass through, got %v", got)
	}

	plain := stdErrors.New("connection reset")
	got := Classify(plain, CodeDependency, "provider")
	if CodeOf(got) != CodeDependency {
		t.Fatalf("expected dependency code, got %q", CodeOf(got))
	}
	if !stdErrors.Is(got, plain) {
		t.Fatalf("expected cause preserved")
	}
	if Classify(nil, CodeDependency, "provider") != nil {
		t.Fatalf("expected nil for nil error")
	}
	if CodeOf(plain) != "" {
		t.Fatalf("expected empty code for untyped error")
	}
}
