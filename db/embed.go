// Package db provides the embedded schema of the sale archive.
package db

import _ "embed"

// Schema contains the DDL statements for all archive tables. It is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
