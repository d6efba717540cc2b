// Package sandbox implements the sandboxed execution engine: given
// Options (a command line and a set of resource limits), it spawns the
// target in an isolated execution environment, enforces CPU-time,
// wall-time, memory, output-size, and process-count ceilings, and returns
// a Status describing how it ended.
//
// The engine exposes one capability set, New/Run, across two
// build-tag-selected variants (supervisor_linux.go for POSIX,
// supervisor_windows.go for Windows). The variants share only the
// Options/Status/Error record definitions (options.go, status.go,
// errors.go) and this file's top-level dispatch; per
// spec.md §9 they deliberately do not share a base implementation, since
// the isolation primitives differ fundamentally.
package sandbox

import "context"

// Sandbox runs a single guest process to completion under the configured
// limits. A Sandbox is used once: construct with New, call Run, discard.
type Sandbox struct {
	opts Options
}

// New validates opts and returns a Sandbox ready to Run. Validation
// failures are returned here, before any OS call (spec.md §4.1).
func New(opts Options) (*Sandbox, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Sandbox{opts: opts}, nil
}

// Run spawns the guest, waits for it to terminate (or be killed by a
// deadline), and returns the resulting Status. On Linux, ctx cancellation
// is honored only as an additional deadline source alongside
// Options.TimeLimitMs; the Windows supervisor does not observe ctx, so
// there only TimeLimitMs bounds the wait. There is no other external
// cancellation primitive (spec.md §5).
func (s *Sandbox) Run(ctx context.Context) (Status, error) {
	return runSupervisor(ctx, s.opts)
}
