// Package updater runs one reconciliation pass: it takes the index lock,
// streams the anime list once per collection, and feeds every record
// through the parser and the merge engine.
//
// Per-record failures are logged and counted. Only fatal errors (identifier
// mismatches in the document, unusable configuration) and I/O failures on
// the source document end a run early.
package updater
