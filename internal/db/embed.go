package db

import "embed"

// migrationsFS holds one migration directory per goose dialect.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS
