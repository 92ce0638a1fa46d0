// Package core provides the business logic for user import and CRUD operations.
//
// This package holds all domain logic independent of any transport or
// storage driver. It is used by the web handlers and the usersctl CLI
// without modification.
//
// # Import Pipeline
//
// A bulk import runs four stages in order on the caller's goroutine:
//
//  1. [Parse] turns a CSV or plain-text stream into a lazy sequence of [RawRecord]
//  2. [Normalizer] maps each record onto the canonical {name, role} shape,
//     resolving [schema.UserNameAliases] in priority order
//  3. [BulkWriter] issues exactly one multi-row insert through a [BatchInserter]
//  4. [Ingestor] owns the upload: it picks the format from the file extension,
//     spools the body to a scoped temp file, and reports a [BatchResult]
//
// Records without a usable name are dropped under the [SkipNameless] policy.
// Nothing is written unless at least one record survives normalization.
//
// # Stores
//
// Storage is reached only through [UserStore] and [ProductStore]. The
// concrete Postgres, MySQL and MongoDB adapters live under internal/store and
// are injected into [NewService] by the caller, which also owns their lifecycle.
//
// # Error Handling
//
// Errors are sentinel values or typed errors matched with errors.Is and
// errors.As. Technical errors are mapped to user-friendly messages using
// [MapError]. Each message carries a code for support reference:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL003: Validation errors
//   - FILE001-FILE006: File errors (size, encoding, format)
//   - UPL001-UPL005: Upload errors (busy, cancelled, timeout)
//   - USR001-USR004: Record errors (not found, bad id)
package core
