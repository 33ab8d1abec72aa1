package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Statements that only one of the supported dialects understands. Every
// migration runs on postgres in production and on sqlite in local mode.
var dialectOnly = []struct {
	re   *regexp.Regexp
	what string
}{
	{regexp.MustCompile(`(?i)\bgen_random_uuid\s*\(`), "gen_random_uuid()"},
	{regexp.MustCompile(`(?i)\btimestamptz\b`), "TIMESTAMPTZ"},
	{regexp.MustCompile(`(?i)\b(big)?serial\b`), "SERIAL"},
	{regexp.MustCompile(`(?i)::\s*[a-z]`), "postgres :: casts"},
	{regexp.MustCompile(`(?i)\bautoincrement\b`), "AUTOINCREMENT"},
}

// ValidateDir runs ValidateFS over a directory on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks the migrations at the root of fsys: file names, unique
// versions, Up before Down, balanced statement blocks and dialect portability.
// An empty set is an error.
func ValidateFS(fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	versions := make(map[string]string, len(names))
	for _, name := range names {
		m := migrationNameRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, dup := versions[m[1]]; dup {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(fsys, path.Clean(name))
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		if err := checkMigrationBody(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}

	if len(versions) == 0 {
		return fmt.Errorf("no migrations found")
	}
	return nil
}

func checkMigrationBody(txt string) error {
	up := strings.Index(txt, "-- +goose Up")
	down := strings.Index(txt, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf(`missing "-- +goose Up"`)
	case down < 0:
		return fmt.Errorf(`missing "-- +goose Down"`)
	case down < up:
		return fmt.Errorf("down section precedes up section")
	}

	open := false
	for i, line := range strings.Split(txt, "\n") {
		switch strings.TrimSpace(line) {
		case "-- +goose StatementBegin":
			if open {
				return fmt.Errorf("line %d: nested StatementBegin", i+1)
			}
			open = true
		case "-- +goose StatementEnd":
			if !open {
				return fmt.Errorf("line %d: StatementEnd without StatementBegin", i+1)
			}
			open = false
		}
	}
	if open {
		return fmt.Errorf("unterminated StatementBegin")
	}

	for _, rule := range dialectOnly {
		if rule.re.MatchString(stripSQLComments(txt)) {
			return fmt.Errorf("uses %s, which does not run on both postgres and sqlite", rule.what)
		}
	}
	return nil
}

func stripSQLComments(txt string) string {
	lines := strings.Split(txt, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}
