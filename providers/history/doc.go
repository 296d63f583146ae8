// Package history defines the Provider interface for persisting finished
// retry runs, so fix rates and failure reports can be inspected after the
// fact. Implementations live in the inmemory and sqlitehistory subpackages.
package history
