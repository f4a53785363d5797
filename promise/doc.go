// Package promise provides a settle-once future for results produced
// on another goroutine.
//
// A Deferred is the write side: whoever owns the work calls Resolve or
// Reject exactly once. The Promise is the read side and may be awaited
// any number of times from any goroutine.
//
//	d := promise.Defer[int]()
//	go func() { d.Resolve(42) }()
//	v, err := d.Promise().Await(ctx)
//
// Nodeify adapts a promise to an error-first callback:
//
//	p.Nodeify(func(err error, v int) { ... })
package promise
