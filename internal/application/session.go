package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SeJohnEff/simprov/internal/domain"
	"github.com/SeJohnEff/simprov/internal/ports"
)

const (
	// ProbeScript is the card tool entry point used for reader probes
	// and card operations. The exact flag protocol is the tool's
	// documented surface, not ours; see scriptArgs below.
	ProbeScript = "sysmo_isim_sja2.py"

	// DefaultRemainingAttempts is assumed when the tool does not report
	// an attempt counter. Conservative on purpose: the guard starts
	// demanding confirmation as soon as the counter drops below 3.
	DefaultRemainingAttempts = 3

	MessageReaderAvailable = "Card reader available (use Authenticate to connect)"
	MessageAuthenticated   = "Authentication successful"
	MessageProgrammed      = "Card programmed successfully"
)

// programFlags maps recognized record fields to the card tool's
// programming flags, in the order they are emitted.
var programFlags = []struct {
	field string
	flag  string
	hex   bool
}{
	{field: domain.FieldICCID, flag: "--set-iccid"},
	{field: domain.FieldIMSI, flag: "--set-imsi"},
	{field: domain.FieldKi, flag: "--set-ki", hex: true},
	{field: domain.FieldOPc, flag: "--set-opc", hex: true},
	{field: "MNC_LENGTH", flag: "--set-mnclen"},
	{field: "ALGO_2G", flag: "--set-algo-2g"},
	{field: "ALGO_3G", flag: "--set-algo-3g"},
	{field: "ALGO_4G5G", flag: "--set-algo-4g5g"},
	{field: "HPLMN", flag: "--set-hplmn"},
}

// CardSession drives one physical reader through the card lifecycle:
// Idle -> Detected -> Authenticated -> {read, program, verify} -> back to
// Authenticated, with Disconnect returning to Idle from anywhere.
// Failures fall back to the prior stable state with a typed error; the
// session never sticks mid-operation.
//
// A session is bound to a single reader and must be driven by one
// goroutine at a time.
type CardSession struct {
	runner ports.ToolRunner

	state         domain.CardState
	authenticated bool
	adm1          string
	identity      domain.CardIdentity
	remaining     int
}

func NewCardSession(runner ports.ToolRunner) *CardSession {
	return &CardSession{
		runner:    runner,
		state:     domain.StateIdle,
		identity:  emptyIdentity(),
		remaining: DefaultRemainingAttempts,
	}
}

func (s *CardSession) State() domain.CardState {
	return s.state
}

func (s *CardSession) Authenticated() bool {
	return s.authenticated
}

func (s *CardSession) RemainingAttempts() int {
	return s.remaining
}

func (s *CardSession) Identity() domain.CardIdentity {
	return domain.CardIdentity{Type: s.identity.Type, Fields: s.identity.Fields.Clone()}
}

// Detect probes the tool and reader. Valid from any state; a fresh detect
// forgets the previous card entirely, including its attempt counter.
func (s *CardSession) Detect(ctx context.Context) (string, error) {
	s.authenticated = false
	s.adm1 = ""
	s.identity = emptyIdentity()

	output, err := s.runner.Run(ctx, ProbeScript, "--help")
	if err != nil {
		s.state = domain.StateIdle
		return output, err
	}

	s.state = domain.StateDetected
	if reported, ok := parseRemainingAttempts(output); ok {
		s.remaining = reported
	} else {
		s.remaining = DefaultRemainingAttempts
	}

	return MessageReaderAvailable, nil
}

// Authenticate presents the ADM1 key. Valid from Detected or
// Authenticated (re-authentication allowed). The attempt guard runs
// before any tool call; a blocked or unconfirmed attempt costs nothing.
func (s *CardSession) Authenticate(ctx context.Context, adm1 string, force bool) (string, error) {
	if s.state != domain.StateDetected && s.state != domain.StateAuthenticated {
		return "", fmt.Errorf("%w: no card detected", domain.ErrInvalidInput)
	}
	if len(adm1) != 8 {
		return "", fmt.Errorf("%w: ADM1 must be exactly 8 characters", domain.ErrInvalidInput)
	}

	switch domain.DecideAttempt(s.remaining, force) {
	case domain.AttemptBlocked:
		return "", fmt.Errorf("%w: no authentication attempts remaining", domain.ErrCardLocked)
	case domain.AttemptNeedsConfirmation:
		return "", fmt.Errorf("%w: only %d attempts remaining", domain.ErrConfirmationRequired, s.remaining)
	}

	output, err := s.runner.Run(ctx, ProbeScript, "-a", adm1)
	if err != nil {
		if errors.Is(err, domain.ErrToolExecutionFailed) {
			// The card saw and rejected the key: one attempt consumed.
			if reported, ok := parseRemainingAttempts(output); ok {
				s.remaining = reported
			} else {
				s.remaining--
			}
			s.authenticated = false
			s.state = domain.StateDetected
		}
		return output, err
	}

	s.authenticated = true
	s.adm1 = adm1
	s.state = domain.StateAuthenticated
	if reported, ok := parseRemainingAttempts(output); ok {
		s.remaining = reported
	}

	return MessageAuthenticated, nil
}

// ReadCardData returns the card's identity fields, refreshing them from
// the tool when the cache is empty.
func (s *CardSession) ReadCardData(ctx context.Context) (domain.Record, error) {
	if s.state != domain.StateAuthenticated {
		return nil, domain.ErrNotAuthenticated
	}

	if len(s.identity.Fields) == 0 {
		if err := s.refreshIdentity(ctx); err != nil {
			return nil, err
		}
	}

	return s.identity.Fields.Clone(), nil
}

// ProgramCard writes the record's recognized fields to the card. The
// record is validated first: nothing malformed reaches hardware. Tool
// failures leave the session Authenticated with the output surfaced
// verbatim.
func (s *CardSession) ProgramCard(ctx context.Context, record domain.Record) (string, error) {
	if s.state != domain.StateAuthenticated {
		return "", domain.ErrNotAuthenticated
	}

	if defects := domain.Validate(record); len(defects) > 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidInput, joinDefects(defects))
	}

	args := buildProgramArgs(s.adm1, record)
	if len(args) <= 2 {
		return "", fmt.Errorf("%w: record has no programmable fields", domain.ErrInvalidInput)
	}

	output, err := s.runner.Run(ctx, ProbeScript, args...)
	if err != nil {
		return output, err
	}

	// The card now carries the programmed identity.
	for _, field := range []string{domain.FieldICCID, domain.FieldIMSI} {
		if value := record.Get(field); value != "" {
			s.identity.Fields[field] = value
		}
	}

	return MessageProgrammed, nil
}

// VerifyCard compares expected fields against the card identity,
// refreshing it from the tool first. The mismatch list is ordered by the
// standard column order.
func (s *CardSession) VerifyCard(ctx context.Context, expected domain.Record) ([]string, error) {
	if s.state != domain.StateAuthenticated {
		return nil, domain.ErrNotAuthenticated
	}

	if err := s.refreshIdentity(ctx); err != nil {
		return nil, err
	}

	var mismatches []string
	for _, field := range domain.StandardColumns {
		want := expected.Get(field)
		if want == "" {
			continue
		}
		got, known := s.identity.Fields[field]
		if !known {
			continue
		}
		if !fieldsEqual(field, want, got) {
			mismatches = append(mismatches, field)
		}
	}

	return mismatches, nil
}

// Disconnect resets the session to Idle. Idempotent, valid from any state.
func (s *CardSession) Disconnect() {
	s.authenticated = false
	s.adm1 = ""
	s.identity = emptyIdentity()
	s.state = domain.StateIdle
}

func (s *CardSession) refreshIdentity(ctx context.Context) error {
	args := []string{"--dump"}
	if s.adm1 != "" {
		args = append([]string{"-a", s.adm1}, args...)
	}

	output, err := s.runner.Run(ctx, ProbeScript, args...)
	if err != nil {
		return err
	}

	fields := parseIdentityFields(output)
	for field, value := range fields {
		s.identity.Fields[field] = value
	}

	return nil
}

func buildProgramArgs(adm1 string, record domain.Record) []string {
	args := []string{"-a", adm1}
	for _, mapping := range programFlags {
		value := record.Get(mapping.field)
		if value == "" {
			continue
		}
		if mapping.hex {
			value = domain.NormalizeHex(value)
		}
		args = append(args, mapping.flag, value)
	}
	if isTruthy(record.Get("USE_OPC")) {
		args = append(args, "--opc-mode")
	}
	return args
}

// parseIdentityFields extracts "Name: value" lines whose names match
// recognized record fields, case-insensitively.
func parseIdentityFields(output string) domain.Record {
	fields := domain.Record{}
	for _, line := range strings.Split(output, "\n") {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		for _, column := range domain.StandardColumns {
			if strings.EqualFold(name, column) {
				fields[column] = value
				break
			}
		}
	}
	return fields
}

// parseRemainingAttempts looks for an attempt counter in tool output,
// e.g. "ADM1 attempts remaining: 2". Tools that do not report one leave
// the session on its conservative default.
func parseRemainingAttempts(output string) (int, bool) {
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "attempt") {
			continue
		}
		_, raw, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || value < 0 {
			continue
		}
		return value, true
	}
	return 0, false
}

func fieldsEqual(field, want, got string) bool {
	if field == domain.FieldKi || field == domain.FieldOPc {
		return strings.EqualFold(domain.NormalizeHex(want), domain.NormalizeHex(got))
	}
	return want == got
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func joinDefects(defects []domain.Defect) string {
	parts := make([]string, 0, len(defects))
	for _, defect := range defects {
		parts = append(parts, string(defect))
	}
	return strings.Join(parts, "; ")
}

func emptyIdentity() domain.CardIdentity {
	return domain.CardIdentity{Type: domain.CardTypeUnknown, Fields: domain.Record{}}
}
