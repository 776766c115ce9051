package plans

import (
	"github.com/julianstephens/studyloop/internal/cli"
)

type StreakCmd struct {
	cli.UserFlag
}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	info, err := ctx.Streaks.Compute(ctx.Ctx(), u.ID)
	if err != nil {
		return err
	}

	ctx.Printf("🔥 Current streak: %d day(s)\n", info.Current)
	ctx.Printf("🏆 Longest streak: %d day(s)\n", info.Longest)
	ctx.Printf("📅 Days with a completion: %d\n", info.TotalCompletedDays)
	if info.LastCompletedDay != nil {
		ctx.Printf("   Last completed: %s\n", *info.LastCompletedDay)
	}
	return nil
}
