// Package storage is the core described by spec.md §3/§4: ColumnSegment,
// SegmentTree, VersionChunk, ColumnStatistics, the constraint verifier,
// index coordination, and the DataTable coordinator, grounded on
// original_source/src/storage/data_table.cpp line-for-line for control
// flow and on tae/pkg/tables and tae/pkg/updates for Go struct/lock shape.
package storage

import "github.com/karlkukk-dev/duckdb/pkg/txnbase"

// BlockSize is a ColumnSegment's fixed byte capacity (spec.md §3/§6).
const BlockSize = 256 * 1024

// StorageChunkSize is a VersionChunk's row capacity (spec.md §3/§6).
const StorageChunkSize = 1024

// VectorSize bounds how many rows a single Scan call materializes
// (spec.md §4.2/§4.8/§6).
const VectorSize = 1024

// TransactionIDStart re-exports txnbase's boundary between transaction
// ids and commit timestamps in a VersionInfo.version_number (spec.md
// §3's "version_number >= TRANSACTION_ID_START means uncommitted").
const TransactionIDStart = txnbase.TransactionIDStart

// RowID is the dense 64-bit row identifier of spec.md's GLOSSARY
// (`row_t`).
type RowID int64
