package application

import (
	"context"
	"fmt"

	"github.com/SeJohnEff/simprov/internal/domain"
	"github.com/SeJohnEff/simprov/internal/ports"
)

// BatchService orchestrates batch workflows: loading and saving batches,
// merging parameter-file imports, and driving a card session across every
// record of a provisioning run.
type BatchService struct {
	repo    ports.BatchRepository
	backups ports.BackupStore
}

func NewBatchService(repo ports.BatchRepository, backups ports.BackupStore) *BatchService {
	return &BatchService{repo: repo, backups: backups}
}

func (s *BatchService) Load(ctx context.Context, path string) (*domain.Batch, error) {
	batch, err := s.repo.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	return batch, nil
}

func (s *BatchService) Save(ctx context.Context, path string, batch *domain.Batch) error {
	if err := s.repo.Save(ctx, path, batch); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// ImportParameters loads a key=value parameter file and appends it to the
// batch as one record, merging its keys into the column set.
func (s *BatchService) ImportParameters(ctx context.Context, batch *domain.Batch, path string) (domain.Record, error) {
	record, err := s.repo.LoadParameters(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("import parameters: %w", err)
	}
	batch.Add(record)
	return record, nil
}

// Run provisions every record of the batch through the session, one card
// at a time: validate, detect, authenticate, optionally back up, program,
// optionally verify. Failures are collected per record; the run always
// reaches the last row.
func (s *BatchService) Run(ctx context.Context, session *CardSession, batch *domain.Batch, opts RunOptions) RunReport {
	report := RunReport{}

	for i, record := range batch.Records() {
		result := s.runRecord(ctx, session, i, record, opts)
		if result.OK {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}

	session.Disconnect()
	return report
}

func (s *BatchService) runRecord(ctx context.Context, session *CardSession, index int, record domain.Record, opts RunOptions) RecordResult {
	result := RecordResult{
		Row:  index + 1,
		IMSI: record.Get(domain.FieldIMSI),
	}

	if defects := domain.ValidateRow(index+1, record); len(defects) > 0 {
		return result.failed(StageValidate, joinDefects(defects))
	}

	if _, err := session.Detect(ctx); err != nil {
		return result.failed(StageDetect, err.Error())
	}

	adm1 := record.Get(domain.FieldADM1)
	if adm1 == "" {
		adm1 = opts.ADM1
	}
	if _, err := session.Authenticate(ctx, adm1, opts.Force); err != nil {
		return result.failed(StageAuthenticate, err.Error())
	}

	if opts.Backup && s.backups != nil {
		if _, err := s.backups.Create(ctx, record); err != nil {
			return result.failed(StageBackup, err.Error())
		}
	}

	message, err := session.ProgramCard(ctx, record)
	if err != nil {
		return result.failed(StageProgram, err.Error())
	}
	result.Message = message

	if opts.Verify {
		mismatches, err := session.VerifyCard(ctx, record)
		if err != nil {
			return result.failed(StageVerify, err.Error())
		}
		if len(mismatches) > 0 {
			result.Mismatches = mismatches
			return result.failed(StageVerify, fmt.Sprintf("mismatched fields: %v", mismatches))
		}
	}

	result.OK = true
	return result
}

func (r RecordResult) failed(stage RunStage, message string) RecordResult {
	r.OK = false
	r.Stage = stage
	r.Message = message
	return r
}
