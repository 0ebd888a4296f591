package reqvalidate

import "strings"

// Basename returns the part of program after the final '/', or the whole
// string if there is none (§4.2 step 1).
func Basename(program string) string {
	if i := strings.LastIndexByte(program, '/'); i >= 0 {
		return program[i+1:]
	}
	return program
}

// BuildResult is the outcome of building a normal-invocation argv.
type BuildResult struct {
	Argv         []string
	StdinPayload []byte
	HasStdin     bool
}

// BuildNormalArgv builds argv for an ordinary (non-help, non-summary)
// dispatch (§4.2 "argv for a normal command"):
//
//  1. argv[0] = basename(program)
//  2. for each argument position i >= 1: if i == stdinArgIndex, capture
//     that chunk as the stdin payload and omit it from argv; otherwise
//     copy it in verbatim (empty chunks become the empty string).
//
// stdinArgIndex must already be resolved against this request's actual
// argument count (see Request.ResolveStdinArgIndex); 0 disables the
// stdin-from-argument behavior entirely.
func BuildNormalArgv(program string, req *Request, stdinArgIndex int) BuildResult {
	argv := make([]string, 0, len(req.Chunks))
	argv = append(argv, Basename(program))

	var out BuildResult
	for i := 1; i < len(req.Chunks); i++ {
		if i == stdinArgIndex {
			out.StdinPayload = req.Chunks[i]
			out.HasStdin = true
			continue
		}
		argv = append(argv, string(req.Chunks[i]))
	}
	out.Argv = argv
	return out
}

// BuildHelpArgv builds argv for a help dispatch (§4.2 "argv for a help
// request"): argv[1] is the matched rule's help_subcommand, argv[2] is the
// client-supplied helpsubcommand when present. This is §9 Open Question 2 —
// implemented as specified, not as a reader might first guess.
func BuildHelpArgv(program, helpSubcommand string, clientHelpSubcommand *string) []string {
	argv := []string{Basename(program), helpSubcommand}
	if clientHelpSubcommand != nil {
		argv = append(argv, *clientHelpSubcommand)
	}
	return argv
}

// BuildSummaryArgv builds argv for a per-rule summary invocation (§4.5.1):
// argv = [basename, rule.summary_subcommand].
func BuildSummaryArgv(program, summaryCommand string) []string {
	return []string{Basename(program), summaryCommand}
}
