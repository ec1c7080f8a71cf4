package libdex

// Promise pairs a Future with the exclusive capability to settle it. After
// the first successful settle, further attempts are silently ignored.
type Promise struct {
	future *Future
}

// NewPromise returns a fresh Pending future and the Promise that settles it.
func NewPromise() *Promise {
	return &Promise{future: newFuture()}
}

// Future returns the promise's backing future.
func (p *Promise) Future() *Future {
	return p.future
}

// Resolve settles the promise's future with value. Reports whether this
// call won the settlement race.
func (p *Promise) Resolve(value any) bool {
	return p.future.settleResolve(value)
}

// Reject settles the promise's future with err. Reports whether this call
// won the settlement race.
func (p *Promise) Reject(err error) bool {
	return p.future.settleReject(err)
}

// ResolveBool is a typed convenience wrapper, encoding the value's runtime
// type the way the source's resolve_boolean does.
func (p *Promise) ResolveBool(v bool) bool { return p.Resolve(v) }

// ResolveInt is a typed convenience wrapper over Resolve.
func (p *Promise) ResolveInt(v int) bool { return p.Resolve(v) }

// ResolveInt64 is a typed convenience wrapper over Resolve.
func (p *Promise) ResolveInt64(v int64) bool { return p.Resolve(v) }

// ResolveFloat64 is a typed convenience wrapper over Resolve.
func (p *Promise) ResolveFloat64(v float64) bool { return p.Resolve(v) }

// ResolveString is a typed convenience wrapper over Resolve.
func (p *Promise) ResolveString(v string) bool { return p.Resolve(v) }

// ResolveObject resolves with an arbitrary boxed value, the analogue of the
// source's resolve_object/resolve_take_boxed: an escape hatch for any value
// that doesn't fit one of the scalar convenience wrappers.
func (p *Promise) ResolveObject(v any) bool { return p.Resolve(v) }

// NewTrue returns an already-Resolved future carrying true.
func NewTrue() *Future { return resolved(true) }

// NewFalse returns an already-Resolved future carrying false.
func NewFalse() *Future { return resolved(false) }

// NewForError returns an already-Rejected future carrying err, unwrapped
// as-is — the caller's error is not reinterpreted into the Kind taxonomy.
func NewForError(err error) *Future { return rejected(err) }

// NewRejected is an alias for NewForError, matching the source's naming for
// the already-rejected constructor alongside new_true/new_false.
func NewRejected(err error) *Future { return rejected(err) }
