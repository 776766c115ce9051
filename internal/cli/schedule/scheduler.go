package schedule

import (
	"github.com/julianstephens/studyloop/internal/cli"
)

// RunCmd ticks every hour until interrupted.
type RunCmd struct{}

func (c *RunCmd) Run(ctx *cli.Context) error {
	ctx.Println("⏰ Scheduler running, ticking at the top of every hour (Ctrl+C to stop)")
	return ctx.Scheduler.Run(ctx.Ctx())
}

// TickCmd runs a single pass, for cron or systemd timers.
type TickCmd struct{}

func (c *TickCmd) Run(ctx *cli.Context) error {
	rep, err := ctx.Scheduler.Tick(ctx.Ctx())
	if err != nil {
		return err
	}
	ctx.Printf("✓ Tick: %d users, %d reminders, %d summaries", rep.Users, rep.Reminders, rep.Summaries)
	if rep.Failures > 0 {
		ctx.Printf(", %d failures (see log)", rep.Failures)
	}
	ctx.Println()
	return nil
}
