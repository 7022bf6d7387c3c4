package server

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/paysignal/internal/observability/logger"
	"github.com/smallbiznis/paysignal/internal/sanitize"
	"github.com/smallbiznis/paysignal/internal/securitylog"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
	"github.com/smallbiznis/paysignal/pkg/tenantctx"
	"go.uber.org/zap"
)

const (
	HeaderAPIKey = "X-API-Key"

	contextClientKey = "client"
	contextGroupKey  = "group"
)

// APIKeyRequired authenticates the caller from X-API-Key or a bearer token.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := apiKeyFromRequest(c)
		if key == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		client, err := s.tenants.Authenticate(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, tenantdomain.ErrUnauthorized) {
				s.sink.Record(c.Request.Context(), securitylog.Event{
					Type:     securitylog.EventAuthorizationDenied,
					Severity: securitylog.SeverityWarning,
					Details: map[string]any{
						"api_key": securitylog.MaskSecret(key),
						"route":   c.FullPath(),
					},
				})
			}
			AbortWithError(c, err)
			return
		}

		c.Set(contextClientKey, client)
		c.Request = c.Request.WithContext(tenantctx.WithClientID(c.Request.Context(), client.ID))
		c.Next()
	}
}

func apiKeyFromRequest(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(HeaderAPIKey)); key != "" {
		return key
	}
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// GroupOwnership resolves :group_id and requires it to belong to the caller.
// Groups owned by someone else are reported as missing.
func (s *Server) GroupOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := clientFromContext(c)
		if client == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		clean := sanitize.TenantID(c.Param("group_id"))
		groupID := clean.Sanitized
		if groupID == "" || !clean.OK() {
			AbortWithError(c, newValidationError("group_id", "invalid_group_id", "invalid group id"))
			return
		}

		group, err := s.tenants.GroupOwner(c.Request.Context(), groupID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if group.ClientID != client.ID {
			AbortWithError(c, ErrNotFound)
			return
		}

		c.Set(contextGroupKey, group)
		c.Request = c.Request.WithContext(tenantctx.WithGroupID(c.Request.Context(), group.GroupID))
		c.Next()
	}
}

// RequireFeature gates a route on the caller's plan.
func (s *Server) RequireFeature(feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := clientFromContext(c)
		if client == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		ok, err := s.tenants.HasFeature(c.Request.Context(), client.ID, feature)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !ok {
			AbortWithError(c, ErrFeatureUnavailable)
			return
		}
		c.Next()
	}
}

// RateLimit throttles action per group, or per client on routes without a
// group.
func (s *Server) RateLimit(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key, ok := tenantctx.GroupID(ctx)
		if !ok {
			key, _ = tenantctx.ClientID(ctx)
		}

		decision, err := s.limiter.Check(ctx, key, action)
		if err != nil {
			logger.WithContext(ctx, s.log).Warn("rate limit check failed", zap.String("action", action), zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !decision.Allowed {
			s.metrics.RecordRateLimitDenied(action)
			s.sink.Record(ctx, securitylog.Event{
				Type:     securitylog.EventRateLimitExceeded,
				Severity: securitylog.SeverityWarning,
				Details: map[string]any{
					"action":   action,
					"key_hash": securitylog.Hash(key),
					"reset_in": decision.ResetIn.Seconds(),
				},
			})
			setRetryAfter(c, decision.ResetIn.Seconds())
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func setRetryAfter(c *gin.Context, seconds float64) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(seconds))))
}

func clientFromContext(c *gin.Context) *tenantdomain.Client {
	v, ok := c.Get(contextClientKey)
	if !ok {
		return nil
	}
	client, _ := v.(*tenantdomain.Client)
	return client
}

func groupFromContext(c *gin.Context) *tenantdomain.Group {
	v, ok := c.Get(contextGroupKey)
	if !ok {
		return nil
	}
	group, _ := v.(*tenantdomain.Group)
	return group
}
