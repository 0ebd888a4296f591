package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/duskcore/remctld/internal/audit"
	"github.com/duskcore/remctld/internal/dispatch"
	"github.com/duskcore/remctld/internal/ruleset"
)

// ruleView is the read-only shape a rule is exposed as; ACL backend
// internals and identity numeric ids are not echoed back over the API.
type ruleView struct {
	Command        string `json:"command"`
	Subcommand     string `json:"subcommand"`
	Program        string `json:"program"`
	RunAsUser      string `json:"run_as_user,omitempty"`
	HasSummary     bool   `json:"has_summary"`
	HasHelp        bool   `json:"has_help"`
	StdinArgIndex  int    `json:"stdin_arg_index,omitempty"`
	SensitiveCount int    `json:"sensitive_arg_count"`
}

func listRulesHandler(table *ruleset.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		rules := table.Rules()
		out := make([]ruleView, 0, len(rules))
		for _, r := range rules {
			out = append(out, ruleView{
				Command:        r.Command,
				Subcommand:     r.Subcommand,
				Program:        r.Program,
				RunAsUser:      r.RunAsUser,
				HasSummary:     r.SummaryCommand != "",
				HasHelp:        r.HelpCommand != "",
				StdinArgIndex:  r.StdinArgIndex,
				SensitiveCount: len(r.SensitiveArgs),
			})
		}
		c.Header("X-Total-Count", strconv.Itoa(len(out)))
		c.JSON(http.StatusOK, out)
	}
}

func inflightHandler(d *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"in_flight": d.InFlight()})
	}
}

func recentAuditHandler(sink audit.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := 50
		if q := c.Query("n"); q != "" {
			if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
				n = parsed
			}
		}

		r, ok := sink.(audit.Recent)
		if !ok {
			c.JSON(http.StatusOK, []audit.Entry{})
			return
		}
		c.JSON(http.StatusOK, r.Recent(n))
	}
}
