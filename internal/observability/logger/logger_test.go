package logger

import (
	"context"
	"testing"

	"github.com/smallbiznis/paysignal/pkg/tenantctx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsTenantFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := tenantctx.WithGroupID(context.Background(), "grp-1")
	ctx = tenantctx.WithRequestID(ctx, "req-9")

	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "grp-1", fields["group_id"])
		assert.Equal(t, "req-9", fields["request_id"])
		assert.NotContains(t, fields, "client_id")
	}
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "INSERT", operationFromSQL(`INSERT INTO "transactions" (...)`))
	assert.Equal(t, "SELECT", operationFromSQL("  select * from groups"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}
