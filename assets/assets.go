// Package assets embeds the static files shipped with the binaries:
// email templates, DB migrations, the Stammdaten seed and the common passwords list.
package assets

import "embed"

//go:embed all:templates migrations stammdaten.yaml common-passwords.txt
var FS embed.FS

const (
	PostgresMigrationsDir = "migrations/postgres"
	SQLiteMigrationsDir   = "migrations/sqlite"
	StammdatenFile        = "stammdaten.yaml"
	CommonPasswordsFile   = "common-passwords.txt"
)
