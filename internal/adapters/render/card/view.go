package card

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SeJohnEff/simprov/internal/application"
	"github.com/SeJohnEff/simprov/internal/domain"
)

func renderStatusView(status application.CardStatus, s styles) string {
	lines := []string{
		s.title.Render("Card Status"),
		statusLine(s, "state", s.stateLabel.Render(stateLabel(status.State))),
		statusLine(s, "card type", cardTypeLabel(status.CardType)),
		statusLine(s, "IMSI", valueOrDash(status.IMSI)),
		statusLine(s, "ICCID", valueOrDash(status.ICCID)),
		statusLine(s, "authenticated", yesNo(status.Authenticated)),
	}

	attempts := fmt.Sprintf("%d", status.RemainingAttempts)
	if status.RemainingAttempts < 3 {
		attempts = s.warning.Render(fmt.Sprintf("%d — card locks when exhausted", status.RemainingAttempts))
	}
	lines = append(lines, statusLine(s, "attempts left", attempts))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderDefectsView(defects []domain.Defect, s styles) string {
	if len(defects) == 0 {
		return s.okMark.Render("All records valid.")
	}

	lines := []string{
		s.title.Render("Validation Defects"),
		s.header.Render(fmt.Sprintf("defects: %d", len(defects))),
	}
	for _, defect := range defects {
		lines = append(lines, s.defect.Render("  "+string(defect)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderReportView(report application.RunReport, s styles) string {
	lines := []string{
		s.title.Render("Provisioning Run"),
		s.header.Render(fmt.Sprintf("processed: %d  succeeded: %d  failed: %d",
			report.Processed(), report.Succeeded, report.Failed)),
	}

	if report.Processed() == 0 {
		lines = append(lines, s.empty.Render("No records to provision."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, result := range report.Results {
		lines = append(lines, s.section.Render(renderResult(result, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderResult(result application.RecordResult, s styles) string {
	label := fmt.Sprintf("row %d (%s)", result.Row, valueOrDash(result.IMSI))

	if result.OK {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			s.okMark.Render("ok   "), s.detail.Render(label))
	}

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Top,
		s.failMark.Render("fail "),
		s.detail.Render(fmt.Sprintf("%s at %s", label, result.Stage)))}
	if result.Message != "" {
		parts = append(parts, s.defect.Render("      "+result.Message))
	}
	if len(result.Mismatches) > 0 {
		parts = append(parts, s.defect.Render("      mismatched: "+strings.Join(result.Mismatches, ", ")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func statusLine(s styles, key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.fieldKey.Render(fmt.Sprintf("%-14s", key+":")), value)
}

func stateLabel(state domain.CardState) string {
	switch state {
	case domain.StateIdle:
		return "waiting for card"
	case domain.StateDetected:
		return "card reader detected"
	case domain.StateAuthenticated:
		return "authenticated"
	default:
		return string(state)
	}
}

func cardTypeLabel(cardType domain.CardType) string {
	switch cardType {
	case domain.CardTypeSJS1:
		return "sysmoSIM-SJS1"
	case domain.CardTypeSJA2:
		return "sysmoISIM-SJA2"
	case domain.CardTypeSJA5:
		return "sysmoISIM-SJA5"
	default:
		return "unknown"
	}
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
