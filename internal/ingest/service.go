package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/config"
	"github.com/smallbiznis/paysignal/internal/extraction"
	"github.com/smallbiznis/paysignal/internal/observability/metrics"
	"github.com/smallbiznis/paysignal/internal/pattern"
	"github.com/smallbiznis/paysignal/internal/ratelimit"
	"github.com/smallbiznis/paysignal/internal/sanitize"
	"github.com/smallbiznis/paysignal/internal/securitylog"
	"github.com/smallbiznis/paysignal/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const testRateKey = "test_patterns"

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Limiter    ratelimit.Limiter
	Sources    SourceResolver
	Store      Store
	Authorizer Authorizer       `optional:"true"`
	Sink       securitylog.Sink `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
	// Location decides which calendar day a transaction is filed under.
	Location *time.Location `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	limiter    ratelimit.Limiter
	sources    SourceResolver
	store      Store
	authorizer Authorizer
	sink       securitylog.Sink
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	loc        *time.Location
}

func NewService(p Params) *Service {
	sink := p.Sink
	if sink == nil {
		sink = securitylog.NewZapSink(p.Log, p.Clock)
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		loc:        loc,
		log:        p.Log.Named("ingest.service"),
		clock:      p.Clock,
		limiter:    p.Limiter,
		sources:    p.Sources,
		store:      p.Store,
		authorizer: p.Authorizer,
		sink:       sink,
		metrics:    p.Metrics,
		tracer:     otel.Tracer("github.com/smallbiznis/paysignal/internal/ingest"),
	}
}

// Process runs one inbound message through the pipeline. Ordinary bad input
// and non-payment chatter come back as a Result; an error means a
// collaborator failed and the caller decides whether to retry.
func (s *Service) Process(ctx context.Context, message, groupID string) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "ingest.Process")
	defer func() {
		span.SetAttributes(attribute.String("ingest.status", string(res.Status)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.RecordMessage(string(res.Status))
	}()

	res = Result{Errors: []string{}, Warnings: []string{}}

	key := sanitize.TenantID(groupID).Sanitized
	if key == "" {
		res.Status = StatusRejected
		res.Errors = append(res.Errors, "Group ID is required")
		return res, nil
	}

	decision, err := s.limiter.Check(ctx, key, config.ActionParsePayment)
	if err != nil {
		return res, fmt.Errorf("rate limit check: %w", err)
	}
	if !decision.Allowed {
		s.metrics.RecordRateLimitDenied(config.ActionParsePayment)
		s.emit(ctx, securitylog.EventRateLimitExceeded, securitylog.SeverityWarning, map[string]any{
			"group_id": key,
			"action":   config.ActionParsePayment,
			"reset_in": decision.ResetIn.Seconds(),
		})
		res.Status = StatusRateLimited
		res.RetryAfter = decision.ResetIn
		res.Errors = append(res.Errors, "Rate limit exceeded")
		return res, nil
	}

	input := sanitize.Input(message, groupID)
	res.Warnings = append(res.Warnings, input.Warnings...)
	if len(input.Warnings) > 0 {
		s.emit(ctx, securitylog.EventSuspiciousContent, securitylog.SeverityWarning, map[string]any{
			"group_id": input.GroupID,
			"warnings": input.Warnings,
		})
	}
	if !input.OK() {
		s.emit(ctx, securitylog.EventInvalidInput, securitylog.SeverityWarning, map[string]any{
			"group_id": input.GroupID,
			"errors":   input.Errors,
		})
		res.Status = StatusRejected
		res.Errors = append(res.Errors, input.Errors...)
		return res, nil
	}
	span.SetAttributes(attribute.String("group.hash", securitylog.Hash(input.GroupID)))

	settings, err := s.sources.GetSettings(ctx, input.GroupID)
	if err != nil {
		return res, fmt.Errorf("load settings: %w", err)
	}
	if !settings.Enabled {
		res.Status = StatusDisabled
		return res, nil
	}
	source, err := s.sources.GetActiveSource(ctx, input.GroupID)
	if err != nil {
		return res, fmt.Errorf("resolve source: %w", err)
	}

	amountCheck := pattern.Validate(source.AmountPattern, pattern.KindAmount)
	payerCheck := pattern.Validate(source.PayerPattern, pattern.KindPayer)
	if !amountCheck.OK() || !payerCheck.OK() {
		s.rejectPatterns(ctx, input.GroupID, source.Key, amountCheck, payerCheck)
		res.Status = StatusRejected
		res.Errors = append(res.Errors, prefixed("Amount pattern", amountCheck.Errors)...)
		res.Errors = append(res.Errors, prefixed("Payer pattern", payerCheck.Errors)...)
		return res, nil
	}

	tx, outcome := s.extract(ctx, extraction.Input{
		Message:  input.Message,
		GroupID:  input.GroupID,
		Source:   source,
		AmountRe: amountCheck.Compiled,
		PayerRe:  payerCheck.Compiled,
		Now:      s.clock.Now().In(s.loc),
	})
	res.Reason = outcome.Reason
	if tx == nil {
		res.Status = StatusNoMatch
		if len(outcome.Errors) > 0 {
			s.log.Warn("extracted value rejected",
				zap.String("reason", string(outcome.Reason)),
				zap.Strings("errors", outcome.Errors),
			)
			s.emit(ctx, securitylog.EventParsingError, securitylog.SeverityWarning, map[string]any{
				"group_id": input.GroupID,
				"reason":   string(outcome.Reason),
				"errors":   outcome.Errors,
			})
		}
		return res, nil
	}

	var clientID string
	if s.authorizer != nil {
		verdict, err := s.authorizer.Authorize(ctx, input.GroupID)
		if err != nil {
			return res, fmt.Errorf("authorize group: %w", err)
		}
		if !verdict.Allowed {
			s.emit(ctx, securitylog.EventAuthorizationDenied, securitylog.SeverityWarning, map[string]any{
				"group_id": input.GroupID,
				"reason":   verdict.Reason,
			})
			res.Status = StatusUnauthorized
			res.Errors = append(res.Errors, verdict.Reason)
			return res, nil
		}
		clientID = verdict.ClientID
	}

	id, err := s.store.Append(ctx, *tx)
	if err != nil {
		s.metrics.RecordStorageFailure()
		return res, fmt.Errorf("append transaction: %w", err)
	}

	if s.authorizer != nil && clientID != "" {
		if err := s.authorizer.IncrementUsage(ctx, clientID); err != nil {
			s.log.Warn("usage increment failed", zap.String("client_id", clientID), zap.Error(err))
		}
	}

	amount, _ := tx.Amount.Float64()
	s.metrics.ObserveAmount(amount)
	s.emit(ctx, securitylog.EventPaymentParsed, securitylog.SeverityInfo, map[string]any{
		"group_id":   input.GroupID,
		"amount":     tx.Amount.StringFixed(2),
		"payer_hash": securitylog.Hash(tx.Payer),
		"source":     tx.Source,
	})

	res.Status = StatusStored
	res.TransactionID = id.String()
	res.Transaction = tx
	return res, nil
}

// extract shields the caller from a panic inside matching; a pattern that
// passed validation and still fails is logged and treated as no match.
func (s *Service) extract(ctx context.Context, in extraction.Input) (tx *extraction.Transaction, outcome extraction.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("extraction panicked", zap.Any("panic", r))
			s.emit(ctx, securitylog.EventParsingError, securitylog.SeverityError, map[string]any{
				"group_id": in.GroupID,
				"error":    fmt.Sprint(r),
			})
			tx = nil
			outcome = extraction.Outcome{Reason: extraction.ReasonParsingError}
		}
	}()
	return extraction.Extract(in)
}

func (s *Service) rejectPatterns(ctx context.Context, groupID, sourceKey string, amount, payer pattern.Result) {
	if !amount.OK() {
		s.metrics.RecordPatternRejected(string(pattern.KindAmount))
	}
	if !payer.OK() {
		s.metrics.RecordPatternRejected(string(pattern.KindPayer))
	}
	s.emit(ctx, securitylog.EventInvalidPattern, securitylog.SeverityError, map[string]any{
		"group_id":      groupID,
		"source":        sourceKey,
		"amount_errors": amount.Errors,
		"payer_errors":  payer.Errors,
	})
}

// TestPatterns vets and applies an operator's candidate patterns to a sample
// message. Nothing is stored.
func (s *Service) TestPatterns(ctx context.Context, req TestRequest) (out TestResult) {
	ctx, span := s.tracer.Start(ctx, "ingest.TestPatterns")
	defer func() {
		span.SetAttributes(attribute.Bool("pattern_test.success", out.Success))
		span.End()
	}()

	out = TestResult{Errors: []string{}, Warnings: []string{}}

	key := strings.TrimSpace(req.RateKey)
	if key == "" {
		key = testRateKey
	}
	decision, err := s.limiter.Check(ctx, key, config.ActionPatternTest)
	if err != nil || !decision.Allowed {
		if err != nil {
			s.log.Warn("pattern test rate limit check failed", zap.Error(err))
		}
		s.metrics.RecordRateLimitDenied(config.ActionPatternTest)
		s.emit(ctx, securitylog.EventRateLimitExceeded, securitylog.SeverityWarning, map[string]any{
			"action": config.ActionPatternTest,
		})
		out.Errors = append(out.Errors, "Rate limit exceeded for pattern testing")
		return out
	}

	msg := sanitize.Message(req.Message)
	if !msg.OK() {
		out.Errors = append(out.Errors, msg.Errors...)
		return out
	}

	amountCheck := pattern.Validate(req.AmountPattern, pattern.KindAmount)
	payerCheck := pattern.Validate(req.PayerPattern, pattern.KindPayer)

	collected := validation.New()
	collected.Merge("", msg.Result)
	collected.Merge("Amount pattern", amountCheck.Result)
	collected.Merge("Payer pattern", payerCheck.Result)
	out.Errors = append(out.Errors, collected.Errors...)
	out.Warnings = append(out.Warnings, collected.Warnings...)
	if len(out.Errors) > 0 {
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Errors = append(out.Errors, fmt.Sprintf("Pattern testing error: %v", r))
			s.emit(ctx, securitylog.EventPatternTestError, securitylog.SeverityError, map[string]any{
				"error": fmt.Sprint(r),
			})
		}
	}()

	if literal, ok := extraction.FirstCapture(amountCheck.Compiled, msg.Sanitized); ok {
		amount := extraction.ValidateAmount(literal)
		if amount.OK() {
			v := amount.Amount
			out.AmountMatch = &v
		} else {
			out.Warnings = append(out.Warnings, prefixed("Amount value", amount.Errors)...)
		}
	}
	if raw, ok := extraction.FirstCapture(payerCheck.Compiled, msg.Sanitized); ok {
		payer := extraction.ValidatePayer(raw)
		if payer.OK() {
			v := payer.Sanitized
			out.PayerMatch = &v
		} else {
			out.Warnings = append(out.Warnings, prefixed("Payer name", payer.Errors)...)
		}
	}

	out.Success = out.AmountMatch != nil && out.PayerMatch != nil
	s.metrics.RecordPatternTest(out.Success)
	s.emit(ctx, securitylog.EventPatternTest, securitylog.SeverityInfo, map[string]any{
		"success":             out.Success,
		"warnings_count":      len(out.Warnings),
		"amount_pattern_hash": securitylog.Hash(req.AmountPattern),
		"payer_pattern_hash":  securitylog.Hash(req.PayerPattern),
	})
	return out
}

func (s *Service) emit(ctx context.Context, t securitylog.EventType, sev securitylog.Severity, details map[string]any) {
	s.sink.Record(ctx, securitylog.Event{
		Timestamp: s.clock.Now(),
		Type:      t,
		Severity:  sev,
		Details:   details,
	})
}

func prefixed(prefix string, msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, prefix+": "+m)
	}
	return out
}
