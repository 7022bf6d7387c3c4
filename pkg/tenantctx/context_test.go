package tenantctx

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := WithGroupID(context.Background(), " -100123 ")
	ctx = WithClientID(ctx, "client-1")
	ctx = WithRequestID(ctx, "req-1")

	if id, ok := GroupID(ctx); !ok || id != "-100123" {
		t.Fatalf("expected group id -100123, got %q (%v)", id, ok)
	}
	if id, ok := ClientID(ctx); !ok || id != "client-1" {
		t.Fatalf("expected client id, got %q", id)
	}
	if RequestID(ctx) != "req-1" {
		t.Fatalf("expected request id")
	}
	if _, ok := GroupID(context.Background()); ok {
		t.Fatalf("expected missing group id")
	}
}
