// Package core is the schema-aware bulk mutation engine.
//
// It applies batches of heterogeneous rows to a root table and the child
// tables that reference it, independent of any UI or transport layer. Web
// handlers, the CLI and tests all go through [Service].
//
// # Working Set
//
// A [WorkingSet] is the root table, its direct children and the relation
// catalog, as loaded at one moment. Engine operations take a working set and
// return the next one; the service reloads everything from the store after
// every batch that wrote a table.
//
// # Operations
//
//   - [Engine.Insert] appends root rows seeded from defaults, reserves their
//     keys up front and instantiates child-row templates for each new row.
//   - [Engine.Update] locates rows by key and rewrites only the cells that differ.
//   - [Engine.Delete] removes root rows by key and cascades to every direct
//     child by foreign-key value.
//
// # Writes
//
// Each table is replaced atomically on its own; there is no transaction across
// tables. Writes run as a plan in dependency order (root first for insert,
// children first for delete). The first failure stops the plan and the
// [Result] reports every table as written, failed or not attempted.
//
// # Errors
//
// Fatal configuration problems surface as schema.SchemaError or
// [ErrRootTableMissing]. A batch missing its key column fails with
// [ValidationError] before any write. Row-level problems are skipped and
// counted. [MapError] turns any of these into an operator message with a code.
package core
