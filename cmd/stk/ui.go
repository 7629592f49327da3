package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"studiosim/internal/game"
	"studiosim/internal/sim"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptConfirm(label string) (bool, error) {
	text, err := promptOptional(label + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(text) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// promptPick asks for a 1-based index; blank means no choice.
func promptPick(label string, n int) (int, bool, error) {
	for {
		text, err := promptOptional(fmt.Sprintf("%s (1-%d, blank to skip)", label, n))
		if err != nil {
			return 0, false, err
		}
		if text == "" {
			return 0, false, nil
		}
		v, err := strconv.Atoi(text)
		if err == nil && v >= 1 && v <= n {
			return v - 1, true, nil
		}
		printWarn("Pick one of the listed numbers.")
	}
}

func renderStatus(v game.CompanyView) {
	c := v.Company
	accent.Printf("\n== %s (%02d/%d) ==\n", strings.ToUpper(c.Name), c.Month, c.Year)
	fmt.Printf("Funds:       %s\n", colorizeMoney(c.Funds))
	fmt.Printf("Salaries:    %s / month\n", formatMoney(v.Salaries))
	fmt.Printf("Reputation:  %d\n", c.Reputation)
	fmt.Printf("Delegation:  %s\n", onOff(c.Delegation))
	if c.GameOver {
		danger.Println("GAME OVER: the studio is bankrupt. Run `stk reset` to start again.")
	}

	fmt.Println()
	accent.Println("Staff")
	fmt.Printf("%-10s %-16s %-18s %6s %4s %4s %4s %4s %4s %4s %10s %-16s\n",
		"ID", "NAME", "STATUS", "ENERGY", "PRG", "GFX", "SND", "CRE", "MKT", "SPD", "SALARY", "ROLE")
	for _, m := range c.Staff {
		fmt.Printf("%-10s %-16s %-18s %6.0f %4d %4d %4d %4d %4d %4d %10s %-16s\n",
			truncate(m.ID, 10),
			truncate(m.Name, 16),
			staffStatus(m),
			m.Energy,
			m.Skills.Programming, m.Skills.Graphics, m.Skills.Sound,
			m.Skills.Creativity, m.Skills.Marketing, m.Skills.Speed,
			formatMoney(m.Salary),
			string(m.Role),
		)
	}

	fmt.Println()
	accent.Println("Activity")
	if p := c.Project; p != nil {
		fmt.Printf("Project:     %s [%s] month %d/%d, hype %.0f\n", p.Name, p.Status, p.MonthsSpent, p.DevelopmentMonths, p.Hype)
	} else {
		printInfo("Project:     none")
	}
	if r := c.Research; r != nil {
		fmt.Printf("Research:    %s %s to level %d\n", r.Kind, r.ItemID, r.TargetLevel)
	}
	if b := c.EngineBuild; b != nil {
		fmt.Printf("Engine:      %s, %d/%.0f months\n", b.Target.Name, b.MonthsSpent, b.Target.DevMonths)
	}
	if m := c.Marketing; m != nil {
		fmt.Printf("Marketing:   %s, %d months left\n", m.TargetName, m.MonthsLeft)
	}
	fx := v.Effects
	if fx != (sim.OfficeEffects{}) {
		fmt.Printf("Office:      speed +%.0f%%, creativity +%.0f%%, training +%.0f%%, max energy %.0f\n",
			fx.GlobalSpeedBoost*100, fx.GlobalCreativityBoost*100, fx.TrainingBoost*100, fx.MaxEnergy())
	}

	if len(c.Released) > 0 {
		fmt.Println()
		accent.Println("Catalogue")
		fmt.Printf("%-10s %-24s %8s %7s %10s %12s %s\n", "ID", "NAME", "RELEASED", "REVIEW", "UNITS", "REVENUE", "")
		for _, g := range c.Released {
			tag := ""
			switch {
			case g.IsFranchise:
				tag = "franchise"
			case g.CanStartFranchise:
				tag = "franchise-ready"
			}
			fmt.Printf("%-10s %-24s %8s %7s %10s %12s %s\n",
				truncate(g.ID, 10),
				truncate(g.Name, 24),
				fmt.Sprintf("%02d/%d", g.ReleaseMonth, g.ReleaseYear),
				colorizeReview(g.ReviewScore),
				comma(g.UnitsSold),
				formatMoney(g.Revenue),
				tag,
			)
		}
	}

	if len(c.Notifications) > 0 {
		fmt.Println()
		accent.Println("Recent")
		for _, n := range c.Notifications {
			fmt.Printf("  %s\n", n)
		}
	}
	fmt.Println()
}

func renderTick(rep sim.TickReport, funds int64) {
	if rep.Skipped {
		printWarn(fmt.Sprintf("%02d/%d: nothing happens, the studio is bankrupt.", rep.Month, rep.Year))
		return
	}
	accent.Printf("%02d/%d ", rep.Month, rep.Year)
	fmt.Printf("salaries -%s", formatMoney(rep.Salaries))
	if rep.Revenue > 0 {
		fmt.Printf("  revenue +%s", formatMoney(rep.Revenue))
	}
	if rep.Prizes > 0 {
		fmt.Printf("  prizes +%s", formatMoney(rep.Prizes))
	}
	fmt.Printf("  funds %s\n", colorizeMoney(funds))
	if g := rep.Released; g != nil {
		success.Printf("  Released %q: review %s, %s units, %s\n", g.Name, colorizeReview(g.ReviewScore), comma(g.UnitsSold), formatMoney(g.Revenue))
	}
	for _, a := range rep.Awards {
		if a.PlayerWon {
			success.Printf("  Won %s for %q (+%s)\n", a.Name, a.GameName, formatMoney(a.Prize))
		} else {
			neutral.Printf("  %s went to %s for %q\n", a.Name, a.RivalName, a.GameName)
		}
	}
	for _, n := range rep.Notes {
		fmt.Printf("  %s\n", n)
	}
	if rep.GameOver {
		danger.Println("  The studio ran out of money. GAME OVER.")
	}
}

func renderCycle(rep sim.CycleReport, funds int64) {
	switch {
	case rep.Rejected != "":
		printWarn(fmt.Sprintf("Agent tried %s but it was rejected: %s", rep.Action, rep.Rejected))
	case rep.Action != "":
		printInfo(fmt.Sprintf("Agent: %s", rep.ActionNote))
	default:
		printInfo("Agent: waited this month.")
	}
	renderTick(rep.Tick, funds)
}

func renderHistory(points []sim.FundsPoint) {
	if len(points) == 0 {
		printInfo("No history yet.")
		return
	}
	accent.Println("Funds history")
	fmt.Println(sparkline(points))
	for _, p := range points {
		fmt.Printf("%02d/%d %14s\n", p.Month, p.Year, colorizeMoney(p.Funds))
	}
}

func renderCandidates(cands []sim.Hire) {
	fmt.Printf("%-3s %-18s %4s %4s %4s %4s %4s %4s %10s\n", "#", "NAME", "PRG", "GFX", "SND", "CRE", "MKT", "SPD", "SALARY")
	for i, h := range cands {
		s := h.Skills
		fmt.Printf("%-3d %-18s %4d %4d %4d %4d %4d %4d %10s\n",
			i+1, truncate(h.Name, 18),
			s.Programming, s.Graphics, s.Sound, s.Creativity, s.Marketing, s.Speed,
			formatMoney(sim.SalaryFor(s)),
		)
	}
}

func eventLine(ev game.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%02d/%d] %s", ev.Month, ev.Year, ev.Kind)
	if ev.Action != "" {
		fmt.Fprintf(&b, " %s", ev.Action)
	}
	fmt.Fprintf(&b, " funds=%s", formatMoney(ev.Funds))
	if ev.Released != nil {
		fmt.Fprintf(&b, " released=%q review=%.1f", ev.Released.Name, ev.Released.ReviewScore)
	}
	for _, a := range ev.Awards {
		if a.PlayerWon {
			fmt.Fprintf(&b, " award=%q", a.Name)
		}
	}
	if ev.GameOver {
		b.WriteString(" GAME OVER")
	}
	return b.String()
}

func staffStatus(m sim.StaffMember) string {
	text := string(m.Status)
	switch m.Status {
	case sim.StatusTraining:
		text = fmt.Sprintf("training %s (%d)", m.TrainingSkill, m.TrainingMonthsLeft)
	case sim.StatusOnVacation:
		text = fmt.Sprintf("vacation (%d)", m.VacationMonthsLeft)
	}
	return truncate(text, 18)
}

// sparkline draws the funds series with block glyphs scaled to its range.
func sparkline(points []sim.FundsPoint) string {
	const glyphs = "▁▂▃▄▅▆▇█"
	runes := []rune(glyphs)
	if len(points) == 0 {
		return ""
	}
	lo, hi := points[0].Funds, points[0].Funds
	for _, p := range points {
		lo = min(lo, p.Funds)
		hi = max(hi, p.Funds)
	}
	var b strings.Builder
	for _, p := range points {
		idx := 0
		if hi > lo {
			idx = int((p.Funds - lo) * int64(len(runes)-1) / (hi - lo))
		}
		b.WriteRune(runes[idx])
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return success.Sprint("on")
	}
	return neutral.Sprint("off")
}

func colorizeMoney(v int64) string {
	text := formatMoney(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeReview(score float64) string {
	text := fmt.Sprintf("%.1f", score)
	switch {
	case score >= sim.FranchiseMinScore:
		return success.Sprint(text)
	case score < 4:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatMoney(v int64) string {
	if v < 0 {
		return "-$" + comma(-v)
	}
	return "$" + comma(v)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
