//go:build linux

package launch

import (
	"fmt"
	"os/user"
	"strconv"
	"syscall"
)

// credentialFor resolves the supplementary-group list for runAsUser and
// builds the syscall.Credential the runtime applies in the child before
// exec (§4.3 step 7: "initialize supplementary groups from the target
// user, then setgid, then setuid"). Using SysProcAttr.Credential is the Go
// runtime's own atomic implementation of that same ordering — it performs
// setgroups, then setresgid, then setresuid inside the same pre-exec child
// path that also handles dup2 and chdir, so a failure anywhere in that
// sequence is reported as a ForkExec error rather than leaking a
// partially-dropped child (§4.3 "Any failure is fatal to the child").
func credentialFor(username string, uid, gid int) (*syscall.Credential, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return nil, fmt.Errorf("launch: lookup run_as_user %q: %w", username, err)
	}

	groupIDs, err := u.GroupIds()
	if err != nil {
		return nil, fmt.Errorf("launch: lookup groups for %q: %w", username, err)
	}

	groups := make([]uint32, 0, len(groupIDs))
	for _, g := range groupIDs {
		n, err := strconv.ParseUint(g, 10, 32)
		if err != nil {
			continue
		}
		groups = append(groups, uint32(n))
	}

	return &syscall.Credential{
		Uid:    uint32(uid),
		Gid:    uint32(gid),
		Groups: groups,
	}, nil
}
