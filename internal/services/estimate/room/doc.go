// Package room implements the estimation session engine.
//
// A Registry maps session ids to Rooms. Each Room serialises its membership,
// vote and reveal state behind its own mutex and publishes every change
// through a Transport while still holding that mutex, so subscribers observe
// events in mutation order. Transports must therefore never block and never
// call back into the engine.
//
// Lock order is room, then registry, then transport. The registry never
// takes a room lock; room liveness is read through atomics.
package room
