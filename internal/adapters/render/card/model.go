package card

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SeJohnEff/simprov/internal/application"
	"github.com/SeJohnEff/simprov/internal/domain"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type view int

const (
	viewStatus view = iota
	viewDefects
	viewReport
)

type model struct {
	view    view
	status  application.CardStatus
	defects []domain.Defect
	report  application.RunReport
	styles  styles
	output  string
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		switch m.view {
		case viewDefects:
			m.output = renderDefectsView(m.defects, m.styles)
		case viewReport:
			m.output = renderReportView(m.report, m.styles)
		default:
			m.output = renderStatusView(m.status, m.styles)
		}
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func RenderStatus(status application.CardStatus) (string, error) {
	return run(model{view: viewStatus, status: status, styles: newStyles()})
}

func RenderDefects(defects []domain.Defect) (string, error) {
	return run(model{view: viewDefects, defects: defects, styles: newStyles()})
}

func RenderReport(report application.RunReport) (string, error) {
	return run(model{view: viewReport, report: report, styles: newStyles()})
}

func run(m model) (string, error) {
	p := tea.NewProgram(
		m,
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
