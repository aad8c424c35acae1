package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeJohnEff/simprov/internal/domain"
)

// fakeRunner scripts tool responses per call and records every invocation.
type fakeRunner struct {
	responses []fakeResponse
	calls     [][]string
}

type fakeResponse struct {
	output string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, script string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{script}, args...))
	if len(f.responses) == 0 {
		return "", nil
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next.output, next.err
}

func (f *fakeRunner) queue(output string, err error) *fakeRunner {
	f.responses = append(f.responses, fakeResponse{output: output, err: err})
	return f
}

func execFailure(output string) error {
	return fmt.Errorf("%w: %s", domain.ErrToolExecutionFailed, output)
}

func detectedSession(t *testing.T, runner *fakeRunner) *CardSession {
	t.Helper()
	runner.queue("usage: sysmo_isim_sja2.py", nil)
	session := NewCardSession(runner)
	_, err := session.Detect(context.Background())
	require.NoError(t, err)
	return session
}

func TestDetectSuccess(t *testing.T) {
	runner := (&fakeRunner{}).queue("usage: sysmo_isim_sja2.py", nil)
	session := NewCardSession(runner)

	message, err := session.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MessageReaderAvailable, message)
	assert.Equal(t, domain.StateDetected, session.State())
	assert.Equal(t, DefaultRemainingAttempts, session.RemainingAttempts())
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{ProbeScript, "--help"}, runner.calls[0])
}

func TestDetectFailureReturnsToIdle(t *testing.T) {
	runner := (&fakeRunner{}).queue("Command timed out", domain.ErrTimeout)
	session := NewCardSession(runner)

	output, err := session.Detect(context.Background())
	require.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, "Command timed out", output)
	assert.Equal(t, domain.StateIdle, session.State())
	assert.False(t, session.Authenticated())
}

func TestDetectPicksUpToolReportedAttempts(t *testing.T) {
	runner := (&fakeRunner{}).queue("reader ok\nADM1 attempts remaining: 2", nil)
	session := NewCardSession(runner)

	_, err := session.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, session.RemainingAttempts())
}

func TestDetectResetsPreviousCardState(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)

	runner.queue("usage", nil)
	_, err = session.Detect(context.Background())
	require.NoError(t, err)
	assert.False(t, session.Authenticated())
	assert.Equal(t, domain.StateDetected, session.State())
	assert.Empty(t, session.Identity().Fields)
}

func TestAuthenticateRejectsBadKeyLengthWithoutToolCall(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	callsBefore := len(runner.calls)

	_, err := session.Authenticate(context.Background(), "1234", false)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, runner.calls, callsBefore)
	assert.Equal(t, domain.StateDetected, session.State())
}

func TestAuthenticateFromIdleFails(t *testing.T) {
	session := NewCardSession(&fakeRunner{})

	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuthenticateSuccess(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)

	message, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)
	assert.Equal(t, MessageAuthenticated, message)
	assert.True(t, session.Authenticated())
	assert.Equal(t, domain.StateAuthenticated, session.State())
	assert.Equal(t, []string{ProbeScript, "-a", "12345678"}, runner.calls[len(runner.calls)-1])
}

func TestAuthenticateLowAttemptsNeedsConfirmation(t *testing.T) {
	runner := (&fakeRunner{}).queue("reader ok\nADM1 attempts remaining: 1", nil)
	session := NewCardSession(runner)
	_, err := session.Detect(context.Background())
	require.NoError(t, err)
	callsBefore := len(runner.calls)

	_, err = session.Authenticate(context.Background(), "12345678", false)
	require.ErrorIs(t, err, domain.ErrConfirmationRequired)
	// No tool call, counter untouched, state unchanged.
	assert.Len(t, runner.calls, callsBefore)
	assert.Equal(t, 1, session.RemainingAttempts())
	assert.Equal(t, domain.StateDetected, session.State())
}

func TestAuthenticateLowAttemptsForceProceeds(t *testing.T) {
	runner := (&fakeRunner{}).queue("reader ok\nADM1 attempts remaining: 1", nil)
	session := NewCardSession(runner)
	_, err := session.Detect(context.Background())
	require.NoError(t, err)
	runner.queue("Authenticated", nil)

	_, err = session.Authenticate(context.Background(), "12345678", true)
	require.NoError(t, err)
	assert.True(t, session.Authenticated())
}

func TestAuthenticateBlockedWhenNoAttemptsRemain(t *testing.T) {
	runner := (&fakeRunner{}).queue("reader ok\nADM1 attempts remaining: 0", nil)
	session := NewCardSession(runner)
	_, err := session.Detect(context.Background())
	require.NoError(t, err)
	callsBefore := len(runner.calls)

	_, err = session.Authenticate(context.Background(), "12345678", true)
	require.ErrorIs(t, err, domain.ErrCardLocked)
	assert.Len(t, runner.calls, callsBefore)
}

func TestAuthenticateRejectionConsumesOneAttempt(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("SW mismatch", execFailure("SW mismatch"))

	output, err := session.Authenticate(context.Background(), "87654321", false)
	require.ErrorIs(t, err, domain.ErrToolExecutionFailed)
	assert.Equal(t, "SW mismatch", output)
	assert.Equal(t, DefaultRemainingAttempts-1, session.RemainingAttempts())
	assert.False(t, session.Authenticated())
	assert.Equal(t, domain.StateDetected, session.State())
}

func TestAuthenticateRejectionPrefersToolReportedCounter(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("wrong key\nattempts remaining: 1", execFailure("wrong key"))

	_, err := session.Authenticate(context.Background(), "87654321", false)
	require.ErrorIs(t, err, domain.ErrToolExecutionFailed)
	assert.Equal(t, 1, session.RemainingAttempts())
}

func TestAuthenticateTimeoutLeavesSessionUnchanged(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Command timed out", domain.ErrTimeout)

	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, domain.StateDetected, session.State())
	assert.Equal(t, DefaultRemainingAttempts, session.RemainingAttempts())
}

func TestReadCardDataRequiresAuthentication(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)

	_, err := session.ReadCardData(context.Background())
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestReadCardDataRefreshesAndCaches(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)

	runner.queue("IMSI: 001010000000001\nICCID: 8988211000000000001\nATR: 3b9f96", nil)
	fields, err := session.ReadCardData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "001010000000001", fields.Get(domain.FieldIMSI))
	assert.Equal(t, "8988211000000000001", fields.Get(domain.FieldICCID))

	// Cached on second read: no further tool call.
	callsBefore := len(runner.calls)
	_, err = session.ReadCardData(context.Background())
	require.NoError(t, err)
	assert.Len(t, runner.calls, callsBefore)
}

func TestProgramCardRequiresAuthentication(t *testing.T) {
	session := NewCardSession(&fakeRunner{})

	_, err := session.ProgramCard(context.Background(), domain.Record{domain.FieldIMSI: "001010000000001"})
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestProgramCardGatesInvalidRecords(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)
	callsBefore := len(runner.calls)

	_, err = session.ProgramCard(context.Background(), domain.Record{domain.FieldKi: "too-short"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Ki must be 32 hex chars")
	assert.Len(t, runner.calls, callsBefore)
}

func TestProgramCardSendsRecognizedFields(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)

	runner.queue("done", nil)
	message, err := session.ProgramCard(context.Background(), domain.Record{
		domain.FieldIMSI: "001010000000001",
		domain.FieldKi:   "00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f",
		"USE_OPC":        "true",
		"OPERATOR":       "ignored-unrecognized",
	})
	require.NoError(t, err)
	assert.Equal(t, MessageProgrammed, message)

	call := runner.calls[len(runner.calls)-1]
	assert.Equal(t, ProbeScript, call[0])
	assert.Contains(t, call, "--set-imsi")
	assert.Contains(t, call, "000102030405060708090a0b0c0d0e0f")
	assert.Contains(t, call, "--opc-mode")
	assert.NotContains(t, call, "ignored-unrecognized")
}

func TestProgramCardToolFailureKeepsSessionAuthenticated(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)

	runner.queue("write failed: SW 6982", execFailure("write failed: SW 6982"))
	output, err := session.ProgramCard(context.Background(), domain.Record{domain.FieldIMSI: "001010000000001"})
	require.ErrorIs(t, err, domain.ErrToolExecutionFailed)
	assert.Equal(t, "write failed: SW 6982", output)
	assert.Equal(t, domain.StateAuthenticated, session.State())
	assert.True(t, session.Authenticated())
}

func TestVerifyCardReportsOrderedMismatches(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)

	runner.queue("ICCID: 8988211000000000009\nIMSI: 001010000000009", nil)
	mismatches, err := session.VerifyCard(context.Background(), domain.Record{
		domain.FieldIMSI:  "001010000000001",
		domain.FieldICCID: "8988211000000000001",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.FieldICCID, domain.FieldIMSI}, mismatches)
}

func TestVerifyCardMatchesNormalizedHex(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)

	runner.queue("Ki: 000102030405060708090A0B0C0D0E0F", nil)
	mismatches, err := session.VerifyCard(context.Background(), domain.Record{
		domain.FieldKi: "00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f",
	})
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestVerifyCardRequiresAuthentication(t *testing.T) {
	session := NewCardSession(&fakeRunner{})

	_, err := session.VerifyCard(context.Background(), domain.Record{})
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)

	session.Disconnect()
	assert.Equal(t, domain.StateIdle, session.State())
	assert.False(t, session.Authenticated())

	session.Disconnect()
	assert.Equal(t, domain.StateIdle, session.State())
}

func TestStatusReflectsSession(t *testing.T) {
	runner := &fakeRunner{}
	session := detectedSession(t, runner)
	runner.queue("Authenticated", nil)
	_, err := session.Authenticate(context.Background(), "12345678", false)
	require.NoError(t, err)
	runner.queue("IMSI: 001010000000001\nICCID: 8988211000000000001", nil)
	_, err = session.ReadCardData(context.Background())
	require.NoError(t, err)

	status := session.Status()
	assert.Equal(t, domain.StateAuthenticated, status.State)
	assert.True(t, status.Authenticated)
	assert.Equal(t, "001010000000001", status.IMSI)
	assert.Equal(t, "8988211000000000001", status.ICCID)
	assert.Equal(t, DefaultRemainingAttempts, status.RemainingAttempts)
}
