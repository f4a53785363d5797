package promise

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNilReason is the rejection reason used when Reject is called with nil.
var ErrNilReason = errors.New("promise: rejected with nil error")

// Promise is the read side of a value that becomes available later.
// It settles exactly once, either with a value or with an error.
type Promise[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// Deferred is the write side of a Promise.
type Deferred[T any] struct {
	p *Promise[T]
}

// Defer creates a pending promise together with its settle controls.
func Defer[T any]() *Deferred[T] {
	return &Deferred[T]{p: &Promise[T]{done: make(chan struct{})}}
}

// Promise returns the promise controlled by d.
func (d *Deferred[T]) Promise() *Promise[T] {
	return d.p
}

// Resolve settles the promise with v. It reports false if the promise
// was already settled, in which case v is discarded.
func (d *Deferred[T]) Resolve(v T) bool {
	return d.p.settle(v, nil)
}

// Reject settles the promise with err. A nil err is replaced with
// ErrNilReason so a rejected promise always carries a non-nil error.
func (d *Deferred[T]) Reject(err error) bool {
	if err == nil {
		err = ErrNilReason
	}
	var zero T
	return d.p.settle(zero, err)
}

func (p *Promise[T]) settle(v T, err error) bool {
	settled := false
	p.once.Do(func() {
		p.val, p.err = v, err
		close(p.done)
		settled = true
	})
	return settled
}

// Done returns a channel that is closed once the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has settled.
func (p *Promise[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Await blocks until the promise settles or ctx is done.
// Cancelling ctx only stops the wait; the underlying work keeps running
// and the promise still settles.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the promise settles.
func (p *Promise[T]) Wait() (T, error) {
	<-p.done
	return p.val, p.err
}

// Nodeify calls cb with the outcome once the promise settles, error
// first: cb(err, zero) on rejection and cb(nil, v) on resolution.
// cb runs on its own goroutine, exactly once. A nil cb is ignored.
// Nodeify returns p so it can be chained.
func (p *Promise[T]) Nodeify(cb func(error, T)) *Promise[T] {
	if cb == nil {
		return p
	}
	go func() {
		<-p.done
		cb(p.err, p.val)
	}()
	return p
}

// Resolved returns a promise already settled with v.
func Resolved[T any](v T) *Promise[T] {
	d := Defer[T]()
	d.Resolve(v)
	return d.Promise()
}

// Rejected returns a promise already settled with err.
func Rejected[T any](err error) *Promise[T] {
	d := Defer[T]()
	d.Reject(err)
	return d.Promise()
}

// Try runs fn on a new goroutine and settles the returned promise with
// its result. A panic in fn rejects the promise.
func Try[T any](fn func() (T, error)) *Promise[T] {
	d := Defer[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.Reject(fmt.Errorf("promise: panic: %v", r))
			}
		}()
		v, err := fn()
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(v)
	}()
	return d.Promise()
}

// Then returns a promise settled with fn(v) once p resolves.
// A rejection of p is passed through unchanged and fn is not called.
func Then[T, U any](p *Promise[T], fn func(T) (U, error)) *Promise[U] {
	return Try(func() (U, error) {
		v, err := p.Wait()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	})
}
