package users

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/julianstephens/studyloop/internal/cli"
	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/models"
)

type UserAddCmd struct {
	Name      string `arg:"" help:"Unique user name."`
	Timezone  string `help:"IANA timezone, e.g. Europe/Berlin." default:"UTC"`
	Reminders bool   `help:"Enable scheduled reminders." default:"true" negatable:""`
}

func (c *UserAddCmd) Run(ctx *cli.Context) error {
	if !clock.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	u := models.User{
		ID:               uuid.New().String(),
		Name:             c.Name,
		Timezone:         c.Timezone,
		RemindersEnabled: c.Reminders,
		CreatedAt:        ctx.Resolver.Clock().Now().UTC(),
	}
	if err := ctx.Store.AddUser(ctx.Ctx(), u); err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}
	ctx.Printf("✓ Added user %s (%s)\n", u.Name, u.ID)
	return nil
}

type UserListCmd struct{}

func (c *UserListCmd) Run(ctx *cli.Context) error {
	users, err := ctx.Store.ListUsers(ctx.Ctx())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		ctx.Println("No users found")
		return nil
	}

	t := cli.NewTable("Name", "Timezone", "Reminders", "Local time", "ID")
	for _, u := range users {
		f := ctx.Frame(u)
		tz := u.Timezone
		if tz == "" {
			tz = "UTC"
		}
		t.Row(u.Name, tz, strconv.FormatBool(u.RemindersEnabled), f.Now.Format("Mon 15:04"), cli.MutedStyle.Render(u.ID))
	}
	ctx.Println(t)
	return nil
}

// UserSetCmd changes preferences; unset flags keep their value.
type UserSetCmd struct {
	cli.UserFlag
	Timezone  *string `help:"IANA timezone."`
	Reminders *bool   `help:"Enable or disable scheduled reminders."`
	Rename    *string `help:"New user name."`
}

func (c *UserSetCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	if c.Timezone != nil {
		if !clock.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		u.Timezone = *c.Timezone
	}
	if c.Reminders != nil {
		u.RemindersEnabled = *c.Reminders
	}
	if c.Rename != nil && *c.Rename != "" {
		u.Name = *c.Rename
	}
	if err := ctx.Store.UpdateUser(ctx.Ctx(), u); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	ctx.Printf("✓ Updated user %s\n", u.Name)
	return nil
}
