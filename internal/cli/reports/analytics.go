package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/studyloop/internal/analytics"
	"github.com/julianstephens/studyloop/internal/cli"
	"github.com/julianstephens/studyloop/internal/models"
)

type OverallCmd struct {
	cli.UserFlag
	Period string `arg:"" optional:"" help:"daily, weekly, monthly or all." default:"all" enum:"daily,weekly,monthly,all"`
}

func (c *OverallCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	period, err := analytics.ParsePeriod(c.Period)
	if err != nil {
		return err
	}
	o, err := ctx.Analytics.Overall(ctx.Ctx(), u.ID, period)
	if err != nil {
		return err
	}

	title := "All time"
	if o.From != "" {
		title = fmt.Sprintf("%s (%s to %s)", strings.ToUpper(string(o.Period[:1]))+string(o.Period[1:]), o.From, o.To)
	}
	ctx.Println(cli.TitleStyle.Render(title))
	t := cli.NewTable("Total", "Completed", "Partial", "Skipped", "Missed", "Pending", "Rate", "Time", "Avg")
	t.Row(statsRow(o.Stats)...)
	ctx.Println(t)
	return nil
}

func statsRow(s analytics.Stats) []string {
	return []string{
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Completed),
		strconv.Itoa(s.Partial),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.Missed),
		strconv.Itoa(s.Pending),
		fmt.Sprintf("%.2f%%", s.CompletionRate),
		cli.Minutes(s.TotalTimeSpent),
		cli.Minutes(s.AverageTime),
	}
}

// RangeFlags bound a report; empty is open.
type RangeFlags struct {
	From string `help:"First day (YYYY-MM-DD)."`
	To   string `help:"Last day (YYYY-MM-DD)."`
}

func (r RangeFlags) parse() (models.Day, models.Day, error) {
	var from, to models.Day
	var err error
	if r.From != "" {
		if from, err = models.ParseDay(r.From); err != nil {
			return "", "", err
		}
	}
	if r.To != "" {
		if to, err = models.ParseDay(r.To); err != nil {
			return "", "", err
		}
	}
	if from != "" && to != "" && from.After(to) {
		return "", "", fmt.Errorf("--from %s is after --to %s", from, to)
	}
	return from, to, nil
}

type ObjectivesCmd struct {
	cli.UserFlag
	RangeFlags
}

func (c *ObjectivesCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	from, to, err := c.parse()
	if err != nil {
		return err
	}
	stats, err := ctx.Analytics.ByObjective(ctx.Ctx(), u.ID, from, to)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		ctx.Println("No active objectives")
		return nil
	}

	t := cli.NewTable("Objective", "Total", "Completed", "Partial", "Skipped", "Missed", "Pending", "Rate", "Time", "Avg")
	for _, s := range stats {
		t.Row(append([]string{s.Objective.Title}, statsRow(s.Stats)...)...)
	}
	ctx.Println(t)
	return nil
}

type CategoriesCmd struct {
	cli.UserFlag
	RangeFlags
}

func (c *CategoriesCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	from, to, err := c.parse()
	if err != nil {
		return err
	}
	stats, err := ctx.Analytics.ByCategory(ctx.Ctx(), u.ID, from, to)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		ctx.Println("No active objectives")
		return nil
	}

	t := cli.NewTable("Category", "Objectives", "Total", "Completed", "Partial", "Skipped", "Missed", "Pending", "Rate", "Time", "Avg")
	for _, s := range stats {
		t.Row(append([]string{s.Category, strconv.Itoa(s.Objectives)}, statsRow(s.Stats)...)...)
	}
	ctx.Println(t)
	return nil
}

// CalendarCmd prints a month grid, one cell per day.
type CalendarCmd struct {
	cli.UserFlag
	Month string `arg:"" optional:"" help:"Month as YYYY-MM. Defaults to the current month."`
}

func (c *CalendarCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	var year int
	var month time.Month
	if c.Month != "" {
		t, err := time.Parse("2006-01", c.Month)
		if err != nil {
			return fmt.Errorf("invalid month %q (expected YYYY-MM)", c.Month)
		}
		year, month = t.Year(), t.Month()
	}
	days, err := ctx.Analytics.Calendar(ctx.Ctx(), u.ID, year, month)
	if err != nil {
		return err
	}

	first := days[0].Day
	ctx.Println(cli.TitleStyle.Render(first.Time().Format("January 2006")))
	t := cli.NewTable("Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun")
	row := make([]string, 7)
	col := (int(first.Weekday()) + 6) % 7
	for _, d := range days {
		row[col] = calendarCell(d)
		col++
		if col == 7 {
			t.Row(row...)
			row, col = make([]string, 7), 0
		}
	}
	if col > 0 {
		t.Row(row...)
	}
	ctx.Println(t)
	ctx.Println(cli.MutedStyle.Render("day completed/total"))
	return nil
}

func calendarCell(d analytics.CalendarDay) string {
	day := strings.TrimPrefix(d.Day.String()[8:], "0")
	if d.Total == 0 {
		return day
	}
	return fmt.Sprintf("%s %d/%d", day, d.Completed, d.Total)
}

type WeekCmd struct {
	cli.UserFlag
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	chart, err := ctx.Analytics.WeeklyChart(ctx.Ctx(), u.ID)
	if err != nil {
		return err
	}

	t := cli.NewTable("Day", "Date", "Done", "Partial", "Missed", "Pending", "Hours", "")
	for _, d := range chart {
		bar := strings.Repeat("█", d.Completed) + strings.Repeat("░", d.Total-d.Completed)
		t.Row(d.Weekday.String()[:3], d.Day.String(),
			fmt.Sprintf("%d/%d", d.Completed, d.Total),
			strconv.Itoa(d.Partial), strconv.Itoa(d.Missed), strconv.Itoa(d.Pending),
			fmt.Sprintf("%.2f", d.Hours), bar)
	}
	ctx.Println(t)
	return nil
}
