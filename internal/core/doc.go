// Package core provides the order grid and export operations of the order
// enhancer, independent of any transport. The web server and the CLI both
// drive it.
//
// # Service
//
// [NewService] wires one store database to:
//
//   - the settings store, which resolves the three feature flags per store
//   - the order grid collection, with the computed-column plugin attached
//     and the governorate observer registered on the load-before event
//   - the export post-processor, which rewrites every generated export file
//
// # Exports
//
// [Service.Export] loads the whole grid, writes <export dir>/<uuid>.<format>
// and passes the file result through the matching after-hook. At most
// EXPORT_MAX_CONCURRENT exports run at once; see [ExportLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has its own code range:
//
//   - DB001-DB007: Database errors (connection, schema, credentials)
//   - FILE001-FILE004: Export file errors (missing, bad name, empty)
//   - EXP001-EXP004: Export errors (format, busy, cancelled, timeout)
//   - GRID001-GRID002: Grid request errors (page, store)
//   - RATE001: Rate limiting
package core
