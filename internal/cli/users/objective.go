package users

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/studyloop/internal/cli"
	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/models"
)

// ObjectiveAddCmd creates an objective, or updates the one with the same title.
type ObjectiveAddCmd struct {
	cli.UserFlag
	Title    string `arg:"" help:"Objective title, unique per user."`
	Category string `help:"Category used by analytics." short:"c"`
	Minutes  int    `help:"Estimated minutes per session." default:"30" short:"m"`
	Inactive bool   `help:"Create the objective as inactive."`
}

func (c *ObjectiveAddCmd) Run(ctx *cli.Context) error {
	if c.Minutes < 0 {
		return fmt.Errorf("minutes must be non-negative")
	}
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}

	o, err := ctx.Store.GetObjectiveByTitle(ctx.Ctx(), u.ID, c.Title)
	verb := "Updated"
	switch {
	case err == nil:
	case apperr.Is(err, apperr.ErrNotFound):
		verb = "Added"
		o = models.Objective{ID: uuid.New().String(), UserID: u.ID, Title: c.Title, CreatedAt: ctx.Resolver.Clock().Now().UTC()}
	default:
		return err
	}
	o.Category = c.Category
	o.EstimatedMinutes = c.Minutes
	o.Active = !c.Inactive

	if err := ctx.Store.SaveObjective(ctx.Ctx(), o); err != nil {
		return fmt.Errorf("failed to save objective: %w", err)
	}
	ctx.Printf("✓ %s objective %q (%s)\n", verb, o.Title, cli.Minutes(o.EstimatedMinutes))
	return nil
}

type ObjectiveListCmd struct {
	cli.UserFlag
	All bool `help:"Include inactive objectives."`
}

func (c *ObjectiveListCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	objectives, err := ctx.Store.ListObjectives(ctx.Ctx(), u.ID, c.All)
	if err != nil {
		return err
	}
	if len(objectives) == 0 {
		ctx.Println("No objectives found")
		return nil
	}

	t := cli.NewTable("Title", "Category", "Estimate", "Status", "ID")
	for _, o := range objectives {
		status := "active"
		if !o.Active {
			status = "inactive"
		}
		t.Row(o.Title, o.Category, cli.Minutes(o.EstimatedMinutes), status, cli.MutedStyle.Render(o.ID))
	}
	ctx.Println(t)
	return nil
}
