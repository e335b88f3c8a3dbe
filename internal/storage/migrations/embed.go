// Package migrations applies the embedded schema files for both
// backends: record tables on PostgreSQL, tick-series tables on
// ClickHouse. Files run in lexical order and must be idempotent.
package migrations

import "embed"

// PostgresFS embeds the PostgreSQL schema files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the ClickHouse schema files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
