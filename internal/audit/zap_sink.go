package audit

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink is the default audit sink: one structured log line per request,
// through a named sub-logger, plus an in-memory ring buffer the admin API
// reads from (see entryRing).
type ZapSink struct {
	log  *zap.Logger
	ring *entryRing
}

// NewZapSink returns a Sink logging through log.Named("audit") and
// retaining up to ringCap entries for Recent. ringCap <= 0 disables
// retention (Recent always returns nil).
func NewZapSink(log *zap.Logger, ringCap int) *ZapSink {
	if ringCap < 0 {
		ringCap = 0
	}
	return &ZapSink{
		log:  log.Named("audit"),
		ring: newEntryRing(ringCap),
	}
}

func (s *ZapSink) Record(ctx context.Context, e Entry) {
	fields := []zap.Field{
		zap.String("request_id", e.RequestID),
		zap.String("user", e.User),
		zap.String("remote_addr", e.IPAddress),
		zap.String("command", e.Command),
		zap.String("subcommand", e.Subcommand),
		zap.Strings("argv", e.Argv),
	}
	if e.Status != nil {
		fields = append(fields, zap.Int("status", *e.Status))
	}
	if e.ErrorCode != "" {
		fields = append(fields, zap.String("error_code", e.ErrorCode))
	}

	if e.ErrorCode != "" {
		s.log.Warn("command", fields...)
	} else {
		s.log.Info("command", fields...)
	}

	s.ring.Append(e)
}

// Recent returns up to n of the most recently recorded entries, newest
// first. Implements the Recent interface for internal/admin.
func (s *ZapSink) Recent(n int) []Entry {
	return s.ring.Recent(n)
}
