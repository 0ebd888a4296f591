//go:build linux

// Package dispatch implements C5: the entry point that ties the resolver
// (C1), validator/argv builder (C2), launcher (C3) and pump (C4) together
// into the single `run(client, config, argv_chunks)` operation of §4.5.
package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/duskcore/remctld/internal/acl"
	"github.com/duskcore/remctld/internal/audit"
	"github.com/duskcore/remctld/internal/launch"
	"github.com/duskcore/remctld/internal/pump"
	"github.com/duskcore/remctld/internal/reqvalidate"
	"github.com/duskcore/remctld/internal/ruleset"
	"github.com/duskcore/remctld/internal/transport"
	"github.com/duskcore/remctld/pkg/fmtt"

	"go.uber.org/zap"
)

// Dispatcher holds the collaborators named in §6 plus the concurrency gate
// supplementing §5's "one request per engine instance at a time" note for a
// process that serves many clients concurrently.
type Dispatcher struct {
	Table  *ruleset.Table
	ACL    acl.Evaluator
	Audit  audit.Sink
	Limits transport.Limits

	log *zap.Logger
	sem *semaphore.Weighted

	inFlight  atomic.Int64
	summaries *summaryCache
}

// InFlight reports the number of requests currently past admission (holding
// the concurrency-gate slot). Consumed by internal/admin.
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

// New builds a Dispatcher. maxInFlight bounds concurrently-running engine
// instances, via a weighted semaphore rather than a hand-rolled counting
// gate.
func New(table *ruleset.Table, evaluator acl.Evaluator, sink audit.Sink, log *zap.Logger, maxInFlight int64) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = 64
	}
	d := &Dispatcher{
		Table:  table,
		ACL:    evaluator,
		Audit:  sink,
		Limits: transport.DefaultLimits,
		log:    log.Named("dispatch"),
		sem:    semaphore.NewWeighted(maxInFlight),
	}
	d.summaries = newSummaryCache(d)
	return d
}

// Run is the §4.5 entry point. chunks is the raw request as received from
// the transport layer (§3: chunk 0 is the command, chunk 1 the subcommand,
// chunks >= 1 become argv positions).
func (d *Dispatcher) Run(ctx context.Context, client transport.Client, chunks [][]byte) {
	requestID := uuid.New().String()
	log := d.log.With(zap.String("request_id", requestID), zap.String("user", client.User()))

	if err := d.sem.Acquire(ctx, 1); err != nil {
		_ = client.SendError(ctx, transport.Internal, "too many concurrent requests")
		return
	}
	defer d.sem.Release(1)

	d.inFlight.Add(1)
	defer d.inFlight.Add(-1)

	req := &reqvalidate.Request{Chunks: chunks}

	// Step 1: empty argv check.
	if len(chunks) == 0 {
		_ = client.SendError(ctx, transport.BadCommand, "empty request")
		return
	}

	// Step 2: header NUL policy.
	if err := req.ValidateHeader(); err != nil {
		_ = client.SendError(ctx, transport.BadCommand, "NUL byte in command or subcommand")
		return
	}

	// Step 3: materialize command/subcommand.
	command, _ := req.Command()
	subcommand, hasSub := req.Subcommand()

	cmdTok := ruleset.Present(command)
	subTok := ruleset.Absent
	if hasSub {
		subTok = ruleset.Present(subcommand)
	}

	// Step 4: resolve.
	rule := d.Table.Resolve(cmdTok, subTok)

	helpMode := false
	var clientHelpSubcommand *string

	// Step 5: help routing.
	if rule == nil && command == "help" {
		if req.ArgCount() >= 3 {
			_ = client.SendError(ctx, transport.TooManyArgs, "help takes at most two arguments")
			// fail-open: continue processing using only the first three tokens (§9 OQ1)
		}
		if !hasSub {
			d.runSummary(ctx, client, requestID)
			return
		}

		helpMode = true
		newCmdTok := ruleset.Present(subcommand)
		newSubTok := ruleset.Absent
		if req.ArgCount() >= 2 {
			v, _ := indexChunk(chunks, 2)
			clientHelpSubcommand = &v
			newSubTok = ruleset.Present(v)
		}
		command, subcommand = subcommand, ""
		if clientHelpSubcommand != nil {
			subcommand = *clientHelpSubcommand
		}
		rule = d.Table.Resolve(newCmdTok, newSubTok)
	}

	// Step 6: argument NUL policy, using the matched rule's stdin_arg_index
	// (no stdin exception when no rule matched).
	stdinArgIndex := 0
	if rule != nil {
		stdinArgIndex = req.ResolveStdinArgIndex(rule.StdinArgIndex)
	}
	if err := req.ValidateArgs(stdinArgIndex); err != nil {
		_ = client.SendError(ctx, transport.BadCommand, "NUL byte in disallowed argument position")
		return
	}

	// Step 7: audit log, masking sensitive positions.
	d.logCommand(ctx, log, requestID, client, rule, chunks)
	auditArgv := maskedArgv(rule, chunks)

	// Step 8: resolution failure.
	if rule == nil {
		d.recordAudit(ctx, requestID, client, command, subcommand, nil, auditArgv, transport.UnknownCommand.String())
		_ = client.SendError(ctx, transport.UnknownCommand, "unknown command")
		return
	}

	// Step 9: ACL check. No output frame may precede this.
	if !d.ACL.Permit(rule, client.User()) {
		d.recordAudit(ctx, requestID, client, command, subcommand, nil, auditArgv, transport.Access.String())
		_ = client.SendError(ctx, transport.Access, "access denied")
		return
	}

	var argv []string
	var stdinPayload []byte
	var hasStdin bool

	if helpMode {
		// Step 10.
		if rule.HelpCommand == "" {
			d.recordAudit(ctx, requestID, client, command, subcommand, nil, auditArgv, transport.NoHelp.String())
			_ = client.SendError(ctx, transport.NoHelp, "no help available")
			return
		}
		argv = reqvalidate.BuildHelpArgv(rule.Program, rule.HelpCommand, clientHelpSubcommand)
	} else {
		// Step 11.
		built := reqvalidate.BuildNormalArgv(rule.Program, req, stdinArgIndex)
		argv = built.Argv
		stdinPayload = built.StdinPayload
		hasStdin = built.HasStdin
	}

	// Step 12: launch + pump.
	status, launchErr := d.launchAndPump(ctx, client, rule, command, argv, stdinPayload, hasStdin, log)
	if launchErr != nil {
		d.recordAudit(ctx, requestID, client, command, subcommand, nil, auditArgv, transport.Internal.String())
		_ = client.SendError(ctx, transport.Internal, "could not launch command")
		return
	}

	d.recordAudit(ctx, requestID, client, command, subcommand, &status, auditArgv, "")
}

func (d *Dispatcher) launchAndPump(ctx context.Context, client transport.Client, rule *ruleset.Rule, command string, argv []string, stdinPayload []byte, hasStdin bool, log *zap.Logger) (int, error) {
	env := childEnv(client, command)

	req := &launch.Request{
		Program:     rule.Program,
		Argv:        argv,
		Env:         env,
		RunAsUser:   rule.RunAsUser,
		UID:         rule.RunAsUID,
		GID:         rule.RunAsGID,
		MergeStderr: client.Protocol() == 1,
	}
	if hasStdin {
		req.StdinPayload = stdinPayload
	}

	h, err := launch.Launch(req)
	if err != nil {
		fields := append([]zap.Field{zap.Strings("argv", argv)}, fmtt.ErrorChainFields(err)...)
		log.Warn("launch failed", fields...)
		return 0, err
	}
	defer h.Close()

	log.Info("launched", zap.Int("pid", h.PID), zap.Strings("argv", argv))

	res := pump.Run(ctx, h, stdinPayload, client, d.Limits)

	// Step 13: blocking-reap fallback if the pump returned without reaping.
	status := res.Status
	if !res.Reaped {
		status = h.BlockingReap()
	}

	return status, nil
}

// childEnv builds the five environment variables §6 names, in the exact
// order listed there. REMOTE_HOST is present only when client.Hostname()
// is known. REMCTL_COMMAND is the command token alone, not the full argv.
func childEnv(client transport.Client, command string) []string {
	env := []string{
		"REMUSER=" + client.User(),
		"REMOTE_USER=" + client.User(),
		"REMOTE_ADDR=" + client.IPAddress(),
	}
	if h := client.Hostname(); h != "" {
		env = append(env, "REMOTE_HOST="+h)
	}
	env = append(env, "REMCTL_COMMAND="+command)
	return env
}

func indexChunk(chunks [][]byte, i int) (string, bool) {
	if i >= len(chunks) {
		return "", false
	}
	return string(chunks[i]), true
}

func (d *Dispatcher) recordAudit(ctx context.Context, requestID string, client transport.Client, command, subcommand string, status *int, argv []string, errCode string) {
	if d.Audit == nil {
		return
	}
	d.Audit.Record(ctx, audit.Entry{
		RequestID:  requestID,
		User:       client.User(),
		IPAddress:  client.IPAddress(),
		Hostname:   client.Hostname(),
		Command:    command,
		Subcommand: subcommand,
		Argv:       argv,
		Status:     status,
		ErrorCode:  errCode,
	})
}
