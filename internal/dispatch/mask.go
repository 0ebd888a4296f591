//go:build linux

package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/duskcore/remctld/internal/ruleset"
	"github.com/duskcore/remctld/internal/transport"
	"github.com/duskcore/remctld/pkg/fmtt"
)

const maskedPlaceholder = "***"

// maskedArgv returns chunks[1:] as strings with any 1-based argument
// position the rule marks sensitive replaced by a placeholder (§4.5 step 7).
// A nil rule (no match yet) masks nothing, since there is no rule to
// consult.
func maskedArgv(rule *ruleset.Rule, chunks [][]byte) []string {
	if len(chunks) <= 1 {
		return nil
	}
	out := make([]string, 0, len(chunks)-1)
	for i := 1; i < len(chunks); i++ {
		if rule != nil && rule.SensitiveArgs[i] {
			out = append(out, maskedPlaceholder)
			continue
		}
		out = append(out, string(chunks[i]))
	}
	return out
}

// logCommand implements §4.5 step 7: log the resolved command after masking
// sensitive positions. A redacted spew dump is emitted at Debug via
// pkg/fmtt, for the cases a flat zap field list loses too much shape.
func (d *Dispatcher) logCommand(ctx context.Context, log *zap.Logger, requestID string, client transport.Client, rule *ruleset.Rule, chunks [][]byte) {
	argv := maskedArgv(rule, chunks)

	fields := []zap.Field{
		zap.String("remote_addr", client.IPAddress()),
		zap.Int("protocol", client.Protocol()),
		zap.Strings("argv", argv),
	}
	if rule != nil {
		fields = append(fields, zap.String("program", rule.Program))
	}
	log.Info("command", fields...)

	if ce := log.Check(zap.DebugLevel, "request dump"); ce != nil {
		ce.Write(zap.String("dump", fmtt.SpewDump(struct {
			RequestID string
			User      string
			Argv      []string
		}{RequestID: requestID, User: client.User(), Argv: argv})))
	}
}
