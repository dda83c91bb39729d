//go:build linux

// Package engine's privilege-drop and resource-limit hook, for POSIX
// systems that support syscall.Credential and golang.org/x/sys/unix
// rlimits.
//
// Go's exec.Cmd has no equivalent of Python's preexec_fn (arbitrary code
// between fork and exec): the credential drop is expressed instead as a
// SysProcAttr the runtime's forkExec applies inside the child before
// exec, matching spec.md §4.4.2's "post-fork, pre-exec hook that drops
// group and user identity". Resource limits (spec.md §5) have no
// per-child hook either; they're applied as process-wide soft limits
// immediately before Start and restored immediately after, relying on the
// fact that rlimits are captured at fork time and a post-fork change to
// the parent's limits does not retroactively affect an already-forked
// child.
package engine

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// rlimits bounds CPU time (seconds), address space (bytes), open file
// descriptors, and output file size (bytes) for the execution child. These
// are deliberately generous defaults; spec.md only mandates the wall-clock
// timeout, these are the "encouraged" additional limits from spec.md §5.
type rlimits struct {
	cpuSeconds uint64
	asBytes    uint64
	nofile     uint64
	fsizeBytes uint64
}

var defaultRlimits = rlimits{
	cpuSeconds: 10,
	asBytes:    512 * 1024 * 1024,
	nofile:     64,
	fsizeBytes: 64 * 1024 * 1024,
}

func applySandboxCredential(cmd *exec.Cmd, uid int) {
	if uid <= 0 {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Credential = &syscall.Credential{
		Uid: uint32(uid),
		Gid: uint32(uid),
	}
	// Run the child in its own process group so a timeout can kill the
	// whole tree, not just the direct child.
	cmd.SysProcAttr.Setpgid = true
}

// withRlimits applies rlimits as process-wide soft limits, runs fn (expected
// to be cmd.Start), then restores the previous limits. Best-effort: a
// failure to get/set a limit is not fatal, the wall-clock timeout remains
// the mandatory guard.
func withRlimits(fn func() error) error {
	saved := map[int]unix.Rlimit{}
	apply := map[int]uint64{
		unix.RLIMIT_CPU:   defaultRlimits.cpuSeconds,
		unix.RLIMIT_AS:    defaultRlimits.asBytes,
		unix.RLIMIT_NOFILE: defaultRlimits.nofile,
		unix.RLIMIT_FSIZE: defaultRlimits.fsizeBytes,
	}

	for res, want := range apply {
		var cur unix.Rlimit
		if err := unix.Getrlimit(res, &cur); err != nil {
			continue
		}
		saved[res] = cur
		next := cur
		next.Cur = want
		if want > next.Max && next.Max != unix.RLIM_INFINITY {
			next.Cur = next.Max
		}
		_ = unix.Setrlimit(res, &next)
	}

	err := fn()

	for res, cur := range saved {
		c := cur
		_ = unix.Setrlimit(res, &c)
	}

	return err
}

func killProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
