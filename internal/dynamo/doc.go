// Package dynamo defines the core data model for System Dynamics simulation.
//
// A model is a flat collection of named variables, each defined by an
// equation over other variables:
//
//   - [Variable]: one named quantity (stock, flow, auxiliary, ...)
//   - [Model]: immutable, name-unique collection of variables
//   - [Snapshot]: every variable's value at one simulated instant
//   - [Config]: run settings (time range, step, reporting, overrides)
//   - [Result]: recorded snapshots of a completed or halted run
//
// The package name honors DYNAMO, the original System Dynamics language.
//
// # Thread Safety
//
// Model, Snapshot and Table are immutable after construction and safe to
// share across concurrent simulation runs. Each run owns its own mutable
// state; see the sim package.
package dynamo
