package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/flywheel/internal/core"
)

// Dashboard panel indices.
const (
	panelTodos = iota
	panelIO
	panelAlerts
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	todoCounts map[string]int
	ioData     *ioSnapshot
	alerts     []alertSnapshot

	// State.
	loading bool
	err     error
}

type ioSnapshot struct {
	loads        int
	saves        int
	bytesWritten int64
	backups      int
	lockWaits    int
	eventCount   int
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	todoCounts map[string]int
	io         *ioSnapshot
	alerts     []alertSnapshot
	err        error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	bucketPending = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	bucketDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	bucketOverdue = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	bucketHigh    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	bucketMedium  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	bucketLow     = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelTodos,
		loading:     true,
		todoCounts:  make(map[string]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.todoCounts = msg.todoCounts
		m.ioData = msg.io
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Flywheel Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	todosPanel := m.renderTodosPanel()
	ioPanel := m.renderIOPanel()
	alertsPanel := m.renderAlertsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		todosPanel = m.applyPanelStyle(panelTodos, todosPanel, colWidth-4)
		ioPanel = m.applyPanelStyle(panelIO, ioPanel, colWidth-4)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, todosPanel, ioPanel, alertsPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		todosPanel = m.applyPanelStyle(panelTodos, todosPanel, panelWidth)
		ioPanel = m.applyPanelStyle(panelIO, ioPanel, panelWidth)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, todosPanel, ioPanel, alertsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderTodosPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Todos"))
	b.WriteString("\n")

	if m.todoCounts["total"] == 0 {
		b.WriteString("  No todos.")
		return b.String()
	}

	order := []string{"pending", "overdue", "done", "high", "medium", "low"}
	for _, bucket := range order {
		count, ok := m.todoCounts[bucket]
		if !ok || count == 0 {
			continue
		}
		label := fmt.Sprintf("  %-14s %d", bucket, count)
		b.WriteString(styleForBucket(bucket).Render(label))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d", m.todoCounts["total"]))

	return b.String()
}

func (m dashboardModel) renderIOPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Storage I/O (7d)"))
	b.WriteString("\n")

	if m.ioData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	io := m.ioData
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Events", io.eventCount))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Loads", io.loads))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Saves", io.saves))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Bytes written", io.bytesWritten))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Backups", io.backups))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Lock waits", io.lockWaits))

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func styleForBucket(bucket string) lipgloss.Style {
	switch bucket {
	case "pending":
		return bucketPending
	case "done":
		return bucketDone
	case "overdue":
		return bucketOverdue
	case "high":
		return bucketHigh
	case "medium":
		return bucketMedium
	case "low":
		return bucketLow
	default:
		return lipgloss.NewStyle()
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	result := dataLoadedMsg{
		todoCounts: make(map[string]int),
	}

	// Count todos by state and priority.
	if Manager != nil {
		todos, err := Manager.List(context.Background(), core.ListFilter{})
		if err != nil {
			result.err = fmt.Errorf("loading todos: %w", err)
			return result
		}
		for _, t := range todos {
			result.todoCounts["total"]++
			if t.Done {
				result.todoCounts["done"]++
			} else {
				result.todoCounts["pending"]++
				if t.IsOverdue() {
					result.todoCounts["overdue"]++
				}
			}
			if t.Priority != "" {
				result.todoCounts[string(t.Priority)]++
			}
		}
	}

	// Load I/O metrics from MetricsCalc.
	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.io = &ioSnapshot{
			loads:        metrics.Loads,
			saves:        metrics.Saves,
			bytesWritten: metrics.BytesWritten,
			backups:      metrics.BackupsCreated,
			lockWaits:    metrics.LockWaits,
			eventCount:   metrics.EventCount,
		}
	}

	// Load alerts from AlertEngine.
	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))

		// Sort alerts by severity: high first, then medium, then low.
		sort.Slice(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for todos, I/O metrics, and alerts",
	Long: `Launch an interactive terminal dashboard showing todo counts,
storage I/O metrics, and active alerts.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
