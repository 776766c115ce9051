package plans

import (
	"github.com/julianstephens/studyloop/internal/cli"
	"github.com/julianstephens/studyloop/internal/models"
)

type DayCmd struct {
	cli.UserFlag
	Date string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, today, yesterday, tomorrow)."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	day, err := cli.ParseDayArg(ctx.Frame(u), c.Date)
	if err != nil {
		return err
	}
	entries, day, err := ctx.Progress.Day(ctx.Ctx(), u.ID, day)
	if err != nil {
		return err
	}

	ctx.Println(cli.TitleStyle.Render(day.Weekday().String() + " " + day.String()))
	if len(entries) == 0 {
		ctx.Println(cli.MutedStyle.Render("Nothing scheduled"))
		return nil
	}

	t := cli.NewTable("Objective", "Status", "Time", "Notes")
	done := 0
	for _, e := range entries {
		if e.Status == models.StatusCompleted || e.Status == models.StatusSkipped {
			done++
		}
		note := e.Notes
		if e.Remarks != "" {
			note = e.Remarks
		}
		t.Row(e.ObjectiveTitle, cli.StatusLabel(e.Status), cli.Minutes(e.TimeSpent), note)
	}
	ctx.Println(t)
	ctx.Printf("%d/%d done\n", done, len(entries))
	return nil
}
