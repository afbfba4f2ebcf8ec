// Package memory provides in-memory implementations of driven port
// interfaces. These adapters hold data only for the process lifetime
// and exist for tests and cache-less runs.
package memory
