// Package durfmt renders elapsed durations for line prefixes.
//
// Two renderings are provided:
//
//   - Human: variable width with unit suffixes, for example "1h2m3.45s",
//     "423.1ms" or "12.3μs". Durations of 100ns or less render as "".
//   - Sortable: fixed width "HH:MM:SS.ffffff" with microsecond precision.
//     Two Sortable strings compare the same way as the durations they
//     came from, as long as both stay below 100 hours.
//
// The Append variants write into a caller-provided buffer so a hot loop can
// reuse one allocation.
package durfmt
