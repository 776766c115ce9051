package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/studyloop/internal/cli"
)

type InitCmd struct {
	Force bool `help:"Delete an existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		path, ok := ctx.SQLitePath()
		if !ok {
			return errors.New("--force only applies to SQLite storage")
		}
		if _, err := os.Stat(path); err == nil {
			ctx.PerformAutomaticBackup()
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("✓ Initialized studyloop storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
