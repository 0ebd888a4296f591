//go:build linux

package dispatch

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/duskcore/remctld/internal/launch"
	"github.com/duskcore/remctld/internal/pump"
	"github.com/duskcore/remctld/internal/reqvalidate"
	"github.com/duskcore/remctld/internal/ruleset"
	"github.com/duskcore/remctld/internal/transport"
)

// summaryCache coalesces concurrent `help` invocations from the same user
// (§4.5.1 launches one child per eligible rule; without coalescing, a burst
// of simultaneous `help` requests from one principal would each re-launch
// every summary program). Grounded on channel_summary.go's use of
// singleflight keyed per refresh; here the key is per-user because ACL
// eligibility is user-specific.
type summaryCache struct {
	d  *Dispatcher
	sg singleflight.Group
}

func newSummaryCache(d *Dispatcher) *summaryCache {
	return &summaryCache{d: d}
}

type summaryResult struct {
	v1Output []byte
	v1Status int
	frames   [][]byte // v2 per-rule output, stream 1 only (§4.5.1)
	status   int
	matched  bool
}

// runSummary implements §4.5.1. It is invoked for `help` with no
// subcommand.
func (d *Dispatcher) runSummary(ctx context.Context, client transport.Client, requestID string) {
	user := client.User()
	v, err, _ := d.summaries.sg.Do(user, func() (any, error) {
		return d.computeSummary(ctx, client), nil
	})
	if err != nil {
		_ = client.SendError(ctx, transport.Internal, "internal failure computing summary")
		return
	}
	res := v.(summaryResult)

	if !res.matched {
		_ = client.SendError(ctx, transport.UnknownCommand, "no summary available")
		return
	}

	if client.Protocol() == 1 {
		_ = client.SendOutputV1(ctx, res.v1Output, res.v1Status)
		return
	}
	for _, frame := range res.frames {
		_ = client.SendOutputV2(ctx, transport.StreamStdout, frame)
	}
	_ = client.SendStatusV2(ctx, res.status)
}

// computeSummary iterates the rule table in order, launching a summary
// invocation for every eligible rule (subcommand == ALL, ACL permits,
// summary_subcommand set). Status aggregation follows §9 OQ4 exactly as
// specified: 0 unless some invocation returned non-zero, in which case the
// status of the *last* non-zero invocation.
func (d *Dispatcher) computeSummary(ctx context.Context, client transport.Client) summaryResult {
	var res summaryResult

	for _, rule := range d.Table.Rules() {
		if rule.Subcommand != ruleset.All {
			continue
		}
		if rule.SummaryCommand == "" {
			continue
		}
		if !d.ACL.Permit(rule, client.User()) {
			continue
		}

		argv := reqvalidate.BuildSummaryArgv(rule.Program, rule.SummaryCommand)
		out, status, ok := d.runOneSummary(ctx, client, rule, argv)
		if !ok {
			continue
		}

		res.matched = true
		res.v1Output = append(res.v1Output, out...)
		res.frames = append(res.frames, out)
		if status != 0 {
			res.v1Status = status
			res.status = status
		}
	}

	return res
}

func (d *Dispatcher) runOneSummary(ctx context.Context, client transport.Client, rule *ruleset.Rule, argv []string) ([]byte, int, bool) {
	req := &launch.Request{
		Program:     rule.Program,
		Argv:        argv,
		Env:         childEnv(client, rule.Command),
		RunAsUser:   rule.RunAsUser,
		UID:         rule.RunAsUID,
		GID:         rule.RunAsGID,
		MergeStderr: true,
	}

	h, err := launch.Launch(req)
	if err != nil {
		d.log.Warn("summary launch failed", zap.String("program", rule.Program), zap.Error(err))
		return nil, 0, false
	}
	defer h.Close()

	capt := &captureClient{Client: client, proto: 1}
	res := pump.Run(ctx, h, nil, capt, d.Limits)

	status := res.Status
	if !res.Reaped {
		status = h.BlockingReap()
	}

	return capt.v1Output, status, true
}

// captureClient wraps the real client but diverts output frames into local
// buffers instead of sending them, so §4.5.1 can aggregate several child
// invocations before the end-user ever sees a frame. Errors from the
// wrapped invocation are swallowed; a failed summary rule is simply
// excluded by the caller checking ok.
type captureClient struct {
	transport.Client
	proto int

	mu       sync.Mutex
	v1Output []byte
	v1Status int
}

func (c *captureClient) Protocol() int { return c.proto }

func (c *captureClient) SendOutputV1(ctx context.Context, data []byte, status int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v1Output = append(c.v1Output, data...)
	c.v1Status = status
	return nil
}

func (c *captureClient) SendOutputV2(ctx context.Context, stream int, data []byte) error {
	if stream != transport.StreamStdout {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v1Output = append(c.v1Output, data...)
	return nil
}

func (c *captureClient) SendStatusV2(ctx context.Context, status int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v1Status = status
	return nil
}

func (c *captureClient) SendError(ctx context.Context, code transport.ErrorCode, message string) error {
	return nil
}
