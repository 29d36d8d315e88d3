package database

import "embed"

// SchemaSQL AutoMigrate 之后按方言补充的 SQL（索引等）
//
//go:embed schema
var SchemaSQL embed.FS
