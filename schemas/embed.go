// Package schemas provides embedded SQL migration files and JSON schemas.
package schemas

import "embed"

// Migrations contains all SQL migration files, grouped by database driver.
//
//go:embed migrations/*/*.sql
var Migrations embed.FS

// CompletionResponseSchema is the JSON schema a chat completion response body must satisfy.
//
//go:embed completion_response.schema.json
var CompletionResponseSchema []byte
