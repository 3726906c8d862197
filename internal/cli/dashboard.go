package cli

import (
	"context"
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// Dashboard panel indices.
const (
	panelStages = iota
	panelAgents
	panelFindings
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int

	stageCounts map[models.Stage]int
	agents      []models.Agent
	findings    []string

	loading bool
	err     error
}

// dashboardDataMsg carries loaded board data back to the model.
type dashboardDataMsg struct {
	stageCounts map[models.Stage]int
	agents      []models.Agent
	findings    []string
	err         error
}

var (
	dashTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	dashPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	dashActivePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	dashHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	dashHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func (m dashboardModel) Init() tea.Cmd {
	return loadDashboardData
}

// loadDashboardData reads the board and the consistency report.
func loadDashboardData() tea.Msg {
	board, err := Boards.LoadOrInit()
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	counts := make(map[models.Stage]int, len(models.Stages()))
	for _, s := range models.Stages() {
		counts[s] = len(board.Stages[s])
	}

	ids := make([]string, 0, len(board.Agents))
	for id := range board.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	agents := make([]models.Agent, 0, len(ids))
	for _, id := range ids {
		agents = append(agents, board.Agents[id])
	}

	var findings []string
	report, err := Checker.Check(context.Background())
	if err == nil {
		for _, a := range report.Agents {
			for _, f := range a.Findings {
				findings = append(findings, fmt.Sprintf("[%s] %s: %s", f.Severity, a.AgentID, f.Message))
			}
		}
		for _, f := range report.Board {
			findings = append(findings, fmt.Sprintf("[%s] %s", f.Severity, f.Message))
		}
	}

	return dashboardDataMsg{stageCounts: counts, agents: agents, findings: findings}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
		case "r":
			m.loading = true
			return m, loadDashboardData
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.stageCounts = msg.stageCounts
		m.agents = msg.agents
		m.findings = msg.findings
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if m.loading {
		return "loading board..."
	}
	if m.err != nil {
		return fmt.Sprintf("error: %v\n\npress q to quit", m.err)
	}

	title := dashTitleStyle.Render("agentboard dashboard")

	stages := dashHeaderStyle.Render("Stages") + "\n"
	for _, s := range models.Stages() {
		stages += fmt.Sprintf("%-12s %d\n", s, m.stageCounts[s])
	}

	agents := dashHeaderStyle.Render("Agents") + "\n"
	if len(m.agents) == 0 {
		agents += "no agents materialized\n"
	}
	for _, a := range m.agents {
		line := fmt.Sprintf("%-10s %-10s", a.ID, a.Status)
		if a.CurrentTask != "" {
			line += " " + a.CurrentTask
		}
		agents += line + "\n"
	}

	findings := dashHeaderStyle.Render("Findings") + "\n"
	if len(m.findings) == 0 {
		findings += "board is consistent\n"
	}
	for _, f := range m.findings {
		findings += f + "\n"
	}

	panels := []string{stages, agents, findings}
	rendered := make([]string, len(panels))
	for i, p := range panels {
		style := dashPanelStyle
		if i == m.activePanel {
			style = dashActivePanelStyle
		}
		rendered[i] = style.Render(p)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	help := dashHelpStyle.Render("tab: switch panel • r: reload • q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, help)
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive board overview",
	Long: `Open an interactive overview of the board: task counts per stage,
the agent pool, and any outstanding consistency findings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(dashboardModel{loading: true})
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
