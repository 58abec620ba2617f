// Package core provides the validation engine for uploaded CSV files.
//
// The package has no transport dependencies. The HTTP server and the
// csvcheck CLI both drive it.
//
// # Engine
//
// [Engine] checks a parsed table against a [Schema] and returns a [Report].
// File-level checks run first as an ordered list of stages and stop at the
// first failure:
//
//  1. every required column is present in the header
//  2. there are more data rows than [Schema.RowThreshold]
//
// Row rules then run on every row and accumulate violations in row order:
// the email must not be blank, and the age must be a number inside
// [Schema.MinAge, Schema.MaxAge]. [ValidateCSV] parses raw bytes and applies
// [DefaultSchema]; a parse failure becomes one file-level violation.
//
// # Service
//
// [Service] wraps the engine for servers. Each [Service.ValidateUpload] holds
// a slot of the [UploadLimiter], assigns the run a UUID and hands a
// [RunSummary] to the configured [RunRecorder]. Row contents are never kept.
//
// # Error Handling
//
// Validation findings are data, not errors: they live in the report.
// Failures around validation (busy limiter, oversized bodies, cancelled
// requests) are mapped to support codes by [MapError]:
//
//   - FILE001-FILE002: upload body problems
//   - UPL002-UPL005: busy, cancelled or timed-out requests
//   - RATE001: rate limiting
//   - DB004: run history unavailable
package core
