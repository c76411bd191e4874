package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewRespectsVerbosity(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 0)

	l.Info("ingested", "session", "s1")
	l.V(1).Info("debug detail")

	out := buf.String()
	if !strings.Contains(out, "ingested") || !strings.Contains(out, "session") {
		t.Errorf("info line missing: %q", out)
	}
	if strings.Contains(out, "debug detail") {
		t.Errorf("V(1) line written at verbosity 0: %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 0).WithValues("request_id", "abc")

	ctx := IntoContext(context.Background(), l)
	FromContext(ctx, Discard()).Info("hello")

	if !strings.Contains(buf.String(), "abc") {
		t.Errorf("context logger lost its values: %q", buf.String())
	}

	// No logger in context: the fallback is used and nothing is written.
	buf.Reset()
	FromContext(context.Background(), Discard()).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("fallback wrote %q", buf.String())
	}
}
