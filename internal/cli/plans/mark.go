package plans

import (
	"fmt"

	"github.com/julianstephens/studyloop/internal/cli"
	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/progress"
)

// MarkCmd records the outcome of one objective on one day.
type MarkCmd struct {
	cli.UserFlag
	Objective string  `arg:"" help:"Objective title or id."`
	Status    string  `arg:"" help:"completed, partial, skipped, missed or pending." enum:"completed,partial,skipped,missed,pending"`
	Date      string  `help:"Day (YYYY-MM-DD, today, yesterday). Defaults to today." short:"d"`
	Minutes   *int    `help:"Minutes spent. Completion defaults to the estimate." short:"m"`
	Notes     *string `help:"Free-form notes." short:"n"`
	Remarks   *string `help:"Short remark shown in day views."`
}

func (c *MarkCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	status, err := models.ParseStatus(c.Status)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidStatus, err)
	}
	day, err := cli.ParseDayArg(ctx.Frame(u), c.Date)
	if err != nil {
		return err
	}

	o, err := ctx.Store.GetObjectiveByTitle(ctx.Ctx(), u.ID, c.Objective)
	if apperr.Is(err, apperr.ErrNotFound) {
		o, err = ctx.Store.GetObjective(ctx.Ctx(), u.ID, c.Objective)
	}
	if err != nil {
		return fmt.Errorf("unknown objective %q: %w", c.Objective, err)
	}

	rec, err := ctx.Progress.Mark(ctx.Ctx(), progress.MarkRequest{
		UserID:      u.ID,
		ObjectiveID: o.ID,
		Day:         day,
		Status:      status,
		Remarks:     c.Remarks,
		Notes:       c.Notes,
		TimeSpent:   c.Minutes,
	})
	if err != nil {
		return err
	}
	ctx.Printf("%s %s on %s (%s)\n", cli.StatusLabel(rec.Status), o.Title, rec.Day, cli.Minutes(rec.TimeSpent))
	return nil
}
