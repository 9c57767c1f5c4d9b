// Package diag collects diagnostics produced while resolving a batch.
//
// A Diagnostic names its subject (the request label or the assembly that
// failed) instead of a source span: request files are data, not code.
// Producers emit through a Reporter; BagReporter stores into a Bag, which
// sorts and deduplicates for deterministic output. Rendering lives in the
// CLI.
package diag
