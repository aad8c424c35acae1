package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/SeJohnEff/simprov/internal/domain"
	"github.com/SeJohnEff/simprov/internal/ports"
)

const (
	backupDirMode   = 0o700
	backupFileMode  = 0o600
	tempFilePattern = ".backup-*.toml.tmp"
	timestampLayout = "20060102_150405"
)

type fileSchema struct {
	Version int               `toml:"version"`
	Card    map[string]string `toml:"card"`
}

const schemaVersion = 1

// Store writes card records to timestamped TOML files and restores them.
// Key material ends up on disk, so backups are created 0600 in a 0700
// directory.
type Store struct {
	dir   string
	clock ports.Clock
}

var _ ports.BackupStore = (*Store)(nil)

func NewStore(dir string, clock ports.Clock) *Store {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Store{dir: filepath.Clean(dir), clock: clock}
}

// Create writes the record to backup_<imsi>_<timestamp>.toml under the
// store directory and returns the path.
func (s *Store) Create(ctx context.Context, record domain.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, backupDirMode); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	imsi := record.Get(domain.FieldIMSI)
	if imsi == "" {
		imsi = "unknown"
	}
	name := fmt.Sprintf("backup_%s_%s.toml", imsi, s.clock.Now().Format(timestampLayout))
	path := filepath.Join(s.dir, name)

	data, err := toml.Marshal(fileSchema{Version: schemaVersion, Card: record})
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	tempFile, err := os.CreateTemp(s.dir, tempFilePattern)
	if err != nil {
		return "", fmt.Errorf("create temp backup file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("write temp backup file: %w", err)
	}

	if err := tempFile.Chmod(backupFileMode); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("chmod temp backup file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("close temp backup file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return "", fmt.Errorf("replace backup file: %w", err)
	}

	cleanup = false
	return path, nil
}

// Restore reads a backup file back into a record. Values come back as
// the strings that were saved.
func (s *Store) Restore(ctx context.Context, path string) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode backup file: %w", err)
	}
	if file.Version != 0 && file.Version != schemaVersion {
		return nil, fmt.Errorf("unsupported backup version %d", file.Version)
	}
	if len(file.Card) == 0 {
		return nil, fmt.Errorf("backup file %q holds no card data", path)
	}

	return domain.Record(file.Card), nil
}
