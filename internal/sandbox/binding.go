package sandbox

// Builder and Result are the two-class shape §6 requires a scripting-host
// language binding to call: a builder that accepts command, limits, and
// descriptors, and a result object with six getters matching Status's
// fields. Neither type adds behavior beyond Options/Status — they exist so
// a cgo/Python/Node shim (explicitly out of scope per §1) has a stable,
// minimal surface rather than needing to know Options/Status's internal
// field layout.
type Builder struct {
	opts Options
}

// NewBuilder returns a Builder with the given command line.
func NewBuilder(command ...string) *Builder {
	b := &Builder{}
	b.opts.Command = command
	return b
}

func (b *Builder) TimeLimitMs(ms uint32) *Builder       { b.opts.TimeLimitMs = ms; return b }
func (b *Builder) CPUTimeLimitMs(ms uint32) *Builder    { b.opts.CPUTimeLimitMs = ms; return b }
func (b *Builder) MemoryLimitKiB(kib uint32) *Builder   { b.opts.MemoryLimitKiB = kib; return b }
func (b *Builder) FileSizeLimitBytes(n int32) *Builder  { b.opts.FileSizeLimitBytes = n; return b }
func (b *Builder) PidsLimit(n int32) *Builder           { b.opts.PidsLimit = n; return b }
func (b *Builder) Input(path string) *Builder           { b.opts.Input = path; return b }
func (b *Builder) Output(path string) *Builder          { b.opts.Output = path; return b }
func (b *Builder) Error(path string) *Builder           { b.opts.Error = path; return b }
func (b *Builder) Workdir(path string) *Builder         { b.opts.Workdir = path; return b }
func (b *Builder) NetworkEnabled(on bool) *Builder      { b.opts.NetworkEnabled = on; return b }
func (b *Builder) CgroupVersion(v int) *Builder         { b.opts.CgroupVersion = v; return b }
func (b *Builder) Result(path string) *Builder          { b.opts.Result = path; return b }

// Build returns the Options this Builder has accumulated.
func (b *Builder) Build() Options {
	return b.opts
}

// Result is the getter-only view of a Status handed back across a
// language-binding boundary.
type Result struct {
	status Status
}

// NewResult wraps a Status as a Result.
func NewResult(status Status) Result {
	return Result{status: status}
}

func (r Result) WallTimeMs() int64      { return r.status.WallTimeMs }
func (r Result) CPUTimeMs() int64       { return r.status.CPUTimeMs }
func (r Result) PeakMemoryKiB() int64   { return r.status.PeakMemoryKiB }
func (r Result) ExitCode() int          { return r.status.ExitCode }
func (r Result) RawStatus() int         { return r.status.RawStatus }
func (r Result) TerminationSignal() int { return r.status.TerminationSignal }
