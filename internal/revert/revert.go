// Package revert implements the cleanup-stack idiom used throughout the
// engine's supervisors: push a cleanup closure as each resource is
// acquired, then either discard the stack on the success path or run it
// in reverse on any early return.
package revert

// Reverter is a LIFO stack of cleanup functions.
type Reverter struct {
	fns []func()
}

// New returns an empty Reverter.
func New() *Reverter {
	return &Reverter{}
}

// Add pushes a cleanup function to be run if Fail is called before Success.
func (r *Reverter) Add(fn func()) {
	r.fns = append(r.fns, fn)
}

// Fail runs every pushed cleanup function in reverse order. Safe to call
// multiple times and safe to call after Success (a no-op in that case).
func (r *Reverter) Fail() {
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.fns[i]()
	}
	r.fns = nil
}

// Success discards the cleanup stack: the caller is keeping every resource
// acquired so far.
func (r *Reverter) Success() {
	r.fns = nil
}

// Clone returns a new Reverter carrying the same pending cleanups, useful
// when a function wants to hand ownership of accumulated cleanups to its
// caller instead of running them itself.
func (r *Reverter) Clone() *Reverter {
	clone := &Reverter{fns: make([]func(), len(r.fns))}
	copy(clone.fns, r.fns)
	return clone
}
