// Package migrations embeds the SQL schema for every supported database.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// FS holds one directory of golang-migrate files per dialect ("sqlite", "postgres").
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// UpSchema concatenates every up migration of dialect in version order.
// Tests use it to build in-memory databases without the migrate runner.
func UpSchema(dialect string) (string, error) {
	files, err := fs.Glob(FS, dialect+"/*.up.sql")
	if err != nil {
		return "", fmt.Errorf("glob migrations: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no migrations for dialect %q", dialect)
	}
	sort.Strings(files)

	var b strings.Builder
	for _, name := range files {
		data, err := FS.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		b.Write(data)
		b.WriteString("\n")
	}
	return b.String(), nil
}
