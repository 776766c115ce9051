package system

import (
	"github.com/julianstephens/studyloop/internal/cli"
)

// SyncCmd runs one reconciliation pass and prints what it changed.
type SyncCmd struct {
	cli.UserFlag
	All bool `help:"Reconcile every user."`
}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	if c.All {
		users, err := ctx.Store.ListUsers(ctx.Ctx())
		if err != nil {
			return err
		}
		for _, u := range users {
			if err := c.syncOne(ctx, u.ID, u.Name); err != nil {
				return err
			}
		}
		return nil
	}

	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	return c.syncOne(ctx, u.ID, u.Name)
}

func (c *SyncCmd) syncOne(ctx *cli.Context, id, name string) error {
	rep, err := ctx.Engine.Sync(ctx.Ctx(), id, ctx.LookBack)
	if err != nil {
		return err
	}
	if rep.Writes() == 0 && rep.Failures == 0 {
		ctx.Printf("✓ %s is up to date\n", name)
		return nil
	}
	ctx.Printf("✓ %s: %d created, %d promoted to missed, %d corrected, %d duplicates, %d orphans, %d purged",
		name, rep.Created, rep.Promoted, rep.Corrected, rep.Deduped, rep.Orphaned, rep.Purged)
	if rep.Failures > 0 {
		ctx.Printf(" (%d failures, see log)", rep.Failures)
	}
	ctx.Println()
	return nil
}
