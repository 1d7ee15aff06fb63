package reqctx

import (
	"context"
	"testing"
)

func TestNew_DistinctRequestIDs(t *testing.T) {
	a := New("s1")
	b := New("s1")

	if a.RequestID() == "" {
		t.Fatal("request id must not be empty")
	}
	if a.RequestID() == b.RequestID() {
		t.Error("two requests for the same session must get distinct ids")
	}
	if a.SessionID() != "s1" {
		t.Errorf("session id = %s", a.SessionID())
	}
}

func TestContext_RoundTrip(t *testing.T) {
	rc := New("s1")
	ctx := WithContext(context.Background(), rc)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("request context not found")
	}
	if got.RequestID() != rc.RequestID() {
		t.Errorf("request id = %s, want %s", got.RequestID(), rc.RequestID())
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("bare context must not carry a request context")
	}
}
