// Package store defines the capability surface of the backing graph
// engine.
//
// The engine itself lives outside this module; everything here is the
// contract the core compiles against:
//
//   - Engine: execute one compiled statement, or build a named multi-step
//     transaction (Tx) with chained steps and a single commit
//   - Record: one persisted entity as a property map with typed accessors
//     for the identity/version fields every record carries
//   - Error categories: the engine reports failures by category
//     (duplicate key, not found); the mutation manager rewraps them into
//     the project's own error kinds
//
// Atomicity for multi-step mutations is delegated entirely to the
// engine's transaction primitive: the core issues the steps and relies on
// the engine to serialize them and to fail the transaction if a step's
// predicate no longer matches by the write step. The core implements no
// additional locking.
package store
