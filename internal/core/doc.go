// Package core is the tabular import and reconciliation engine.
//
// It turns one bounded batch of pasted text or an uploaded workbook into
// validated, deduplicated herd records. It has no transport or storage
// code of its own: web handlers, the CLI and tests drive it through
// [Validate] and [Commit], or through a [Service] that adds limits,
// pending results and mapping preferences.
//
// # Pipeline
//
// Each batch runs strictly left to right:
//
//  1. Split: [ReadSource] decodes the input and picks one delimiter from
//     the first non-empty line (tab, pipe, comma, whitespace).
//  2. Sniff: [Sniff] classifies the entity type from the first row or the
//     sheet name and decides whether row 1 is a header.
//  3. Map: [ResolveMapping] binds canonical fields to columns, from a
//     manual mapping, a stored preference, the synonym table or the
//     positional layout.
//  4. Normalize: [NormalizeRow] parses dates, sex codes, numbers and
//     assembles genealogy fields.
//  5. Validate: [ValidateRow] applies required fields per mode and the
//     entity's rules.
//  6. Reconcile: [Reconcile] rejects or merges same-batch duplicates once
//     every row has finished.
//
// Rows are normalized and validated in parallel; results are identical to
// sequential processing because each row writes only its own slot.
//
// # Entity Registry
//
// Entity types are registered at init time with [Register]. Each
// [EntityDefinition] carries the fields and their synonyms, the
// positional layout, required fields per [Mode], rules and a Build func
// producing a typed [Record]. The definitions live in the entities
// subpackage:
//
//	import _ "github.com/JonMunkholm/herdbook/internal/core/entities"
//
// # Errors
//
// Structural problems abort the batch with a [StructuralError]. Row
// problems become [RowError] values with a [ReasonCode] and never abort.
// [MapError] turns any of them into a [UserMessage] with a support code.
package core
