// Package utils provides the low-level helpers shared by the providers: JSON
// POST round-trips ([PostJSON]), streaming POSTs read through [SSEScanner],
// and small string and pointer helpers.
package utils
