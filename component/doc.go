// Package component provides lifecycle management for long-lived pieces of
// a pinch process, such as the native fetch backend.
//
// Components are registered in dependency order, started in that order and
// stopped in reverse.
//
//	reg := component.NewRegistry()
//	_ = reg.Register(native.NewComponent(cfg))
//	if err := reg.StartAll(ctx); err != nil { ... }
//	defer reg.StopAll(ctx)
package component
