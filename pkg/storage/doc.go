// Package storage defines the probe run record, the RunStore interface,
// and sentinel errors shared by the storage adapters.
//
// Adapters live in the memory and postgres subpackages. Persistence is
// optional: when storage is disabled, probe results are only reported.
package storage
