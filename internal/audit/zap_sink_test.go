package audit

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestZapSinkRecordAndRecent(t *testing.T) {
	s := NewZapSink(zap.NewNop(), 4)
	ctx := context.Background()

	s.Record(ctx, Entry{RequestID: "a", User: "alice"})
	s.Record(ctx, Entry{RequestID: "b", User: "bob", ErrorCode: "ERROR_ACCESS"})

	recent := s.Recent(10)
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].RequestID != "b" || recent[1].RequestID != "a" {
		t.Errorf("recent = %+v, want newest-first [b, a]", recent)
	}
}

func TestZapSinkZeroCapacityDisablesRecent(t *testing.T) {
	s := NewZapSink(zap.NewNop(), 0)
	s.Record(context.Background(), Entry{RequestID: "a"})

	if got := s.Recent(10); got != nil {
		t.Errorf("Recent = %v, want nil", got)
	}
}

var _ Sink = (*ZapSink)(nil)
var _ Recent = (*ZapSink)(nil)
