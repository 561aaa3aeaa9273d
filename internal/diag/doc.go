// Package diag defines the diagnostic model shared by every plbind stage.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by
//     the directive collector, the validator and the driver.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//   - Model fix suggestions as structured text edits that `plbind fix` can
//     apply.
//
// # Scope
//
// Package diag performs no formatting and no IO. Rendering lives in
// internal/diagfmt, applying fixes lives in internal/fix.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – numeric identifier with a stable string form (PLB1003).
//   - Message – short, actionable text.
//   - Primary – the span of the offending syntax element.
//   - Notes – optional secondary spans.
//   - Fixes – optional edits that resolve the problem.
//
// A declaration that produces an error diagnostic is rejected as a whole;
// nothing partially rewritten is ever emitted for it.
package diag
