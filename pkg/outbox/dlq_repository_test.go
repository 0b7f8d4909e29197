package outbox

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClipErrorKeepsShortMessages(t *testing.T) {
	if got := clipError("stripe timeout"); got != "stripe timeout" {
		t.Fatalf("unexpected clip %q", got)
	}
}

func TestClipErrorStopsOnRuneBoundary(t *testing.T) {
	msg := strings.Repeat("a", maxDLQErrorLen-1) + "é" + "tail"
	got := clipError(msg)
	if len(got) > maxDLQErrorLen {
		t.Fatalf("expected at most %d bytes, got %d", maxDLQErrorLen, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("clipped message must remain valid utf-8")
	}
	if len(got) != maxDLQErrorLen-1 {
		t.Fatalf("expected split rune to be dropped, got %d bytes", len(got))
	}
}
