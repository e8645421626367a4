// Package cleanupcache memoizes transcript-cleanup responses in SQLite.
//
// Entries are keyed by a hash of the model, instruction and chunk text, so a
// re-run over the same transcript with the same settings skips the cleanup
// service entirely.
package cleanupcache
