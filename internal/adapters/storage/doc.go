// Package storage selects the durable key-value backend named in configuration.
//
// Backends live in subpackages:
//   - memory: process-local maps, used in tests and throwaway runs
//   - sqlite: a single kv table in a WAL-mode SQLite file (pure Go driver)
//   - tomlfile: one TOML document holding every slot
//
// The session cache is always in memory; session slots never reach disk.
package storage
