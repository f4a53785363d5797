// Package provider defines the small interfaces shared by request/response
// backends, so transports can be swapped or wrapped without callers knowing
// the concrete type.
package provider
