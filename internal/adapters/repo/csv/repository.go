package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SeJohnEff/simprov/internal/domain"
	"github.com/SeJohnEff/simprov/internal/ports"
)

const (
	batchFileMode   = 0o644
	tempFilePattern = ".batch-*.csv.tmp"
	utf8BOM         = "\ufeff"
)

// Repository reads and writes provisioning batches as CSV files with a
// header row defining column order, plus key=value parameter files
// importable as single records.
type Repository struct{}

var _ ports.BatchRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Load(ctx context.Context, path string) (*domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("batch file has no header row")
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(domain.Record, len(header))
		for i, column := range header {
			if i < len(row) {
				record[column] = row[i]
			} else {
				record[column] = ""
			}
		}
		records = append(records, record)
	}

	batch := domain.NewBatch()
	batch.Load(header, records)
	return batch, nil
}

func (r *Repository) Save(ctx context.Context, path string, batch *domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	columns := batch.Columns()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create batch directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp batch file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	writer := csv.NewWriter(tempFile)
	if err := writer.Write(columns); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write batch header: %w", err)
	}

	// Fields outside the column set are dropped on save, matching the
	// column-set-defines-the-file contract.
	for _, record := range batch.Records() {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = record.Get(column)
		}
		if err := writer.Write(row); err != nil {
			_ = tempFile.Close()
			return fmt.Errorf("write batch row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("flush batch file: %w", err)
	}

	if err := tempFile.Chmod(batchFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp batch file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp batch file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace batch file: %w", err)
	}

	cleanup = false
	return nil
}

// LoadParameters parses a key=value parameter file: blank lines and
// #-prefixed lines are skipped, whitespace around keys and values is
// trimmed.
func (r *Repository) LoadParameters(ctx context.Context, path string) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parameter file: %w", err)
	}
	defer func() { _ = file.Close() }()

	record := domain.Record{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		record[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}

	if len(record) == 0 {
		return nil, errors.New("parameter file has no key=value entries")
	}

	return record, nil
}
