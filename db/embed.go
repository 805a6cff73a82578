// Package db embeds the schema applied on startup.
package db

import _ "embed"

// Schema holds the DDL for the catalog and sales tables. Every statement is
// idempotent, so it runs on every boot.
//
//go:embed migrations/001_schema.sql
var Schema string
