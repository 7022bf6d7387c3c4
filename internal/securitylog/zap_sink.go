package securitylog

import (
	"context"
	"sort"
	"sync"

	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("securitylog",
	fx.Provide(NewZapSink),
)

// ZapSink writes events as structured log entries on a dedicated logger.
type ZapSink struct {
	log   *zap.Logger
	clock clock.Clock
}

func NewZapSink(log *zap.Logger, clk clock.Clock) Sink {
	return &ZapSink{log: log.Named("security"), clock: clk}
}

func (s *ZapSink) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}

	fields := make([]zap.Field, 0, len(event.Details)+3)
	fields = append(fields,
		zap.String("event_type", string(event.Type)),
		zap.String("severity", string(event.Severity)),
		zap.Time("event_ts", event.Timestamp),
	)
	keys := make([]string, 0, len(event.Details))
	for k := range event.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, event.Details[k]))
	}

	log := logger.WithContext(ctx, s.log)
	if ce := log.Check(levelOf(event.Severity), "security event"); ce != nil {
		ce.Write(fields...)
	}
}

func levelOf(sev Severity) zapcore.Level {
	switch sev {
	case SeverityError:
		return zapcore.ErrorLevel
	case SeverityWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Recorder keeps events in memory. Useful where a test needs to assert on
// what the pipeline reported.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Record(_ context.Context, event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns recorded events of the given type in order.
func (r *Recorder) OfType(t EventType) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
