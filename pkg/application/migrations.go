package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationManager collects embedded schema files from modules and applies
// them in registration order. Statements are idempotent (CREATE ... IF NOT
// EXISTS) so startup can re-apply the full set.
type MigrationManager struct {
	pool    *pgxpool.Pool
	schemas []*embed.FS
}

func NewMigrationManager(pool *pgxpool.Pool) *MigrationManager {
	return &MigrationManager{pool: pool}
}

func (m *MigrationManager) RegisterSchema(fsys *embed.FS) {
	m.schemas = append(m.schemas, fsys)
}

func (m *MigrationManager) Apply(ctx context.Context) error {
	for _, fsys := range m.schemas {
		files, err := listSQLFiles(fsys)
		if err != nil {
			return err
		}
		for _, file := range files {
			content, err := fsys.ReadFile(file)
			if err != nil {
				return err
			}
			if _, err := m.pool.Exec(ctx, string(content)); err != nil {
				return fmt.Errorf("applying schema %s: %w", file, err)
			}
		}
	}
	return nil
}

func listSQLFiles(fsys *embed.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
