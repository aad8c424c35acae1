package application

// RunStage names the step of a batch run at which a record failed.
type RunStage string

const (
	StageValidate     RunStage = "validate"
	StageDetect       RunStage = "detect"
	StageAuthenticate RunStage = "authenticate"
	StageBackup       RunStage = "backup"
	StageProgram      RunStage = "program"
	StageVerify       RunStage = "verify"
)

// RunOptions controls a batch provisioning run.
type RunOptions struct {
	// ADM1 is the fallback key for records that carry no ADM1 field.
	ADM1 string
	// Force skips the low-attempt confirmation gate. The caller must
	// have obtained explicit user confirmation first.
	Force bool
	// Verify re-reads each card after programming and compares.
	Verify bool
	// Backup archives each record before it is programmed.
	Backup bool
}

// RecordResult is the outcome for one row of a batch run.
type RecordResult struct {
	Row        int
	IMSI       string
	OK         bool
	Stage      RunStage
	Message    string
	Mismatches []string
}

// RunReport aggregates per-record results; one record's failure never
// aborts the rest of the batch.
type RunReport struct {
	Results   []RecordResult
	Succeeded int
	Failed    int
}

func (r RunReport) Processed() int {
	return len(r.Results)
}
