package system

import (
	"fmt"

	"github.com/julianstephens/studyloop/internal/cli"
)

// MigrateCmd applies pending schema migrations. SQLite databases are
// snapshotted first.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()
	if err := ctx.Store.Init(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	ctx.Printf("✓ Schema is up to date at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
