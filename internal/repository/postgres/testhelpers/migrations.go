package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Коды postgres для объектов, созданных предыдущим прогоном
const (
	pgDuplicateTable  = "42P07"
	pgDuplicateObject = "42710"
)

// ApplyMigrations применяет все *.up.sql из migrationsPath по порядку имён.
// Миграция, чьи таблицы уже существуют, пропускается.
func (tdb *TestDB) ApplyMigrations(ctx context.Context, migrationsPath string) error {
	files, err := os.ReadDir(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var upFiles []string
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".up.sql") {
			upFiles = append(upFiles, f.Name())
		}
	}
	sort.Strings(upFiles)

	for _, file := range upFiles {
		content, err := os.ReadFile(filepath.Join(migrationsPath, file))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		if _, err := tdb.DB.ExecContext(ctx, string(content)); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && (pqErr.Code == pgDuplicateTable || pqErr.Code == pgDuplicateObject) {
				tdb.Logger.Debug("Migration already applied", zap.String("file", file))
				continue
			}
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		tdb.Logger.Info("Applied migration", zap.String("file", file))
	}

	return nil
}
