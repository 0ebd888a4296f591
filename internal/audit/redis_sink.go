package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSink durably records completed requests to a Redis stream via XADD,
// for deployments that want an audit trail outside process memory. A
// *redis.Client plus a named zap sub-logger; construction pings once and
// logs the outcome rather than failing the caller.
type RedisSink struct {
	rdb    *redis.Client
	log    *zap.Logger
	stream string
	next   Sink // wrapped sink invoked first; Record then waits for the XADD (up to 3s)
}

// NewRedisSink wraps next (typically a ZapSink) with durable Redis
// persistence.
func NewRedisSink(addr string, db int, stream string, log *zap.Logger, next Sink) *RedisSink {
	log = log.Named("audit_redis")

	opts := &redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("connection failed", zap.Error(err), zap.String("addr", addr))
	} else {
		log.Info("connection established", zap.String("addr", addr))
	}

	return &RedisSink{rdb: rdb, log: log, stream: stream, next: next}
}

func (s *RedisSink) Record(ctx context.Context, e Entry) {
	if s.next != nil {
		s.next.Record(ctx, e)
	}

	values := map[string]any{
		"request_id": e.RequestID,
		"user":       e.User,
		"ip":         e.IPAddress,
		"hostname":   e.Hostname,
		"command":    e.Command,
		"subcommand": e.Subcommand,
		"error_code": e.ErrorCode,
	}
	if e.Status != nil {
		values["status"] = strconv.Itoa(*e.Status)
	}

	xctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.rdb.XAdd(xctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}).Err(); err != nil {
		s.log.Warn("XADD failed", zap.Error(err), zap.String("request_id", e.RequestID))
	}
}

// Recent delegates to the wrapped sink when it supports it.
func (s *RedisSink) Recent(n int) []Entry {
	if r, ok := s.next.(Recent); ok {
		return r.Recent(n)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
