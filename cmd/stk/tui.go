package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cl "studiosim/internal/cli"
	"studiosim/internal/game"
	"studiosim/internal/sim"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const dashRefreshInterval = 2 * time.Second

var (
	dashTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	dashLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	dashGoodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	dashBadStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	dashBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	dashHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func newDashCmd(apiBase *string) *cobra.Command {
	var live bool
	c := &cobra.Command{
		Use:   "dash",
		Short: "Studio dashboard (--live for the interactive view)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			if !live || !term.IsTerminal(int(os.Stdout.Fd())) {
				if live {
					printWarn("Not a terminal; printing a single snapshot.")
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()
				view, err := client.Company(ctx, sess)
				if err != nil {
					return err
				}
				renderStatus(view)
				if points, err := client.History(ctx, sess, 48); err == nil && len(points) > 1 {
					fmt.Println(sparkline(points))
				}
				return nil
			}
			m := newDashModel(cmd.Context(), client, sess)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil && cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	c.Flags().BoolVar(&live, "live", false, "interactive dashboard that refreshes itself")
	return c
}

type dashLoadedMsg struct {
	view    game.CompanyView
	history []sim.FundsPoint
	err     error
}

type dashAdvancedMsg struct {
	out cl.Outcome
	err error
}

type dashRefreshMsg struct{}

type dashModel struct {
	ctx     context.Context
	client  *cl.Client
	sess    cl.Session
	view    game.CompanyView
	history []sim.FundsPoint
	staff   table.Model
	status  string
	err     error
	loaded  bool
	busy    bool
}

func newDashModel(ctx context.Context, client *cl.Client, sess cl.Session) *dashModel {
	t := table.New(
		table.WithColumns(staffColumns()),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#F7B801")).Bold(true)
	t.SetStyles(styles)
	return &dashModel{ctx: ctx, client: client, sess: sess, staff: t}
}

func staffColumns() []table.Column {
	return []table.Column{
		{Title: "Name", Width: 16},
		{Title: "Status", Width: 18},
		{Title: "Energy", Width: 6},
		{Title: "PRG", Width: 4},
		{Title: "GFX", Width: 4},
		{Title: "SND", Width: 4},
		{Title: "CRE", Width: 4},
		{Title: "MKT", Width: 4},
		{Title: "SPD", Width: 4},
		{Title: "Role", Width: 16},
	}
}

func staffRows(c sim.Company) []table.Row {
	rows := make([]table.Row, 0, len(c.Staff))
	for _, m := range c.Staff {
		s := m.Skills
		rows = append(rows, table.Row{
			truncate(m.Name, 16),
			staffStatus(m),
			fmt.Sprintf("%.0f", m.Energy),
			fmt.Sprint(s.Programming), fmt.Sprint(s.Graphics), fmt.Sprint(s.Sound),
			fmt.Sprint(s.Creativity), fmt.Sprint(s.Marketing), fmt.Sprint(s.Speed),
			string(m.Role),
		})
	}
	return rows
}

func (m *dashModel) Init() tea.Cmd {
	return tea.Batch(m.load(), dashRefresh())
}

func (m *dashModel) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		defer cancel()
		view, err := m.client.Company(ctx, m.sess)
		if err != nil {
			return dashLoadedMsg{err: err}
		}
		hist, err := m.client.History(ctx, m.sess, 60)
		return dashLoadedMsg{view: view, history: hist, err: err}
	}
}

func (m *dashModel) advance() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
		defer cancel()
		out, err := m.client.Send(ctx, m.sess.Key, cl.AdvanceCmd(m.sess.CompanyID))
		return dashAdvancedMsg{out: out, err: err}
	}
}

func dashRefresh() tea.Cmd {
	return tea.Tick(dashRefreshInterval, func(time.Time) tea.Msg {
		return dashRefreshMsg{}
	})
}

func (m *dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.load()
		case "n":
			if m.busy || m.view.Company.GameOver {
				return m, nil
			}
			m.busy = true
			m.status = "advancing..."
			return m, m.advance()
		}
	case dashRefreshMsg:
		return m, tea.Batch(m.load(), dashRefresh())
	case dashLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.loaded = true
			m.view = msg.view
			m.history = msg.history
			m.staff.SetRows(staffRows(msg.view.Company))
		}
		return m, nil
	case dashAdvancedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if rep, ok := msg.out.Tick(); ok {
			m.status = tickSummary(rep)
		}
		return m, m.load()
	}
	var cmd tea.Cmd
	m.staff, cmd = m.staff.Update(msg)
	return m, cmd
}

func (m *dashModel) View() string {
	if !m.loaded {
		if m.err != nil {
			return dashBadStyle.Render("error: "+m.err.Error()) + "\n" + dashHintStyle.Render("r retry · q quit")
		}
		return "loading " + m.sess.Name + "..."
	}
	c := m.view.Company
	var b strings.Builder
	b.WriteString(dashTitleStyle.Render(fmt.Sprintf("%s  %02d/%d", c.Name, c.Month, c.Year)))
	b.WriteString("\n")

	funds := dashGoodStyle.Render(formatMoney(c.Funds))
	if c.Funds < 0 {
		funds = dashBadStyle.Render(formatMoney(c.Funds))
	}
	stats := []string{
		dashLabelStyle.Render("funds ") + funds,
		dashLabelStyle.Render("salaries ") + formatMoney(m.view.Salaries),
		dashLabelStyle.Render("reputation ") + fmt.Sprint(c.Reputation),
		dashLabelStyle.Render("delegation ") + map[bool]string{true: "on", false: "off"}[c.Delegation],
	}
	b.WriteString(strings.Join(stats, "   "))
	b.WriteString("\n")
	if len(m.history) > 1 {
		b.WriteString(dashLabelStyle.Render("history ") + sparkline(m.history) + "\n")
	}

	activity := []string{"project: none"}
	if p := c.Project; p != nil {
		activity[0] = fmt.Sprintf("project: %s [%s] %d/%d hype %.0f", p.Name, p.Status, p.MonthsSpent, p.DevelopmentMonths, p.Hype)
	}
	if r := c.Research; r != nil {
		activity = append(activity, fmt.Sprintf("research: %s %s -> %d", r.Kind, r.ItemID, r.TargetLevel))
	}
	if e := c.EngineBuild; e != nil {
		activity = append(activity, fmt.Sprintf("engine: %s %d/%.0f", e.Target.Name, e.MonthsSpent, e.Target.DevMonths))
	}
	if mk := c.Marketing; mk != nil {
		activity = append(activity, fmt.Sprintf("marketing: %s, %d left", mk.TargetName, mk.MonthsLeft))
	}
	b.WriteString(dashBoxStyle.Render(strings.Join(activity, "\n")))
	b.WriteString("\n")
	b.WriteString(m.staff.View())
	b.WriteString("\n")

	if len(c.Notifications) > 0 {
		b.WriteString(dashBoxStyle.Render(strings.Join(c.Notifications, "\n")))
		b.WriteString("\n")
	}
	if c.GameOver {
		b.WriteString(dashBadStyle.Render("GAME OVER") + "\n")
	}
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	if m.err != nil {
		b.WriteString(dashBadStyle.Render("refresh failed: "+m.err.Error()) + "\n")
	}
	b.WriteString(dashHintStyle.Render("n next month · r refresh · ↑/↓ staff · q quit"))
	return b.String()
}

func tickSummary(rep sim.TickReport) string {
	parts := []string{fmt.Sprintf("%02d/%d: salaries -%s", rep.Month, rep.Year, formatMoney(rep.Salaries))}
	if rep.Revenue > 0 {
		parts = append(parts, "revenue +"+formatMoney(rep.Revenue))
	}
	if rep.Released != nil {
		parts = append(parts, fmt.Sprintf("released %q (%.1f)", rep.Released.Name, rep.Released.ReviewScore))
	}
	for _, a := range rep.Awards {
		if a.PlayerWon {
			parts = append(parts, "won "+a.Name)
		}
	}
	return strings.Join(parts, ", ")
}
