package tenantctx

import (
	"context"
	"strings"
)

type keyType string

const (
	GroupIDKey   keyType = "group_id"
	ClientIDKey  keyType = "client_id"
	RequestIDKey keyType = "request_id"
)

func WithGroupID(ctx context.Context, groupID string) context.Context {
	return context.WithValue(ctx, GroupIDKey, strings.TrimSpace(groupID))
}

func GroupID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(GroupIDKey).(string)
	return id, ok && id != ""
}

func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, strings.TrimSpace(clientID))
}

func ClientID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ClientIDKey).(string)
	return id, ok && id != ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, strings.TrimSpace(requestID))
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
