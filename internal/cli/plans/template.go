package plans

import (
	"fmt"

	"github.com/julianstephens/studyloop/internal/cli"
	"github.com/julianstephens/studyloop/internal/template"
)

type TemplateImportCmd struct {
	cli.UserFlag
	File   string `arg:"" help:"YAML template file." type:"existingfile"`
	NoSync bool   `help:"Skip the reconciliation pass after importing."`
}

func (c *TemplateImportCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	res, err := ctx.Templates.ImportFile(ctx.Ctx(), u.ID, c.File)
	if err != nil {
		return err
	}
	printResult(ctx, res)

	if c.NoSync {
		return nil
	}
	rep, err := ctx.Engine.Sync(ctx.Ctx(), u.ID, ctx.LookBack)
	if err != nil {
		return fmt.Errorf("template imported but sync failed: %w", err)
	}
	ctx.Printf("✓ Reconciled: %d records created, %d purged\n", rep.Created, rep.Purged+rep.Orphaned)
	return nil
}

func printResult(ctx *cli.Context, res template.Result) {
	verb := "Updated"
	if res.TemplateCreated {
		verb = "Installed"
	}
	ctx.Printf("✓ %s template %s (%d objectives added, %d updated)\n",
		verb, res.TemplateID, res.ObjectivesCreated, res.ObjectivesUpdated)
	if res.TimezoneChanged {
		ctx.Println("  Timezone updated from template")
	}
}

// TemplateWatchCmd re-imports the file on every save until interrupted.
type TemplateWatchCmd struct {
	cli.UserFlag
	File string `arg:"" help:"YAML template file." type:"existingfile"`
}

func (c *TemplateWatchCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	if _, err := ctx.Templates.ImportFile(ctx.Ctx(), u.ID, c.File); err != nil {
		return err
	}
	if _, err := ctx.Engine.Sync(ctx.Ctx(), u.ID, ctx.LookBack); err != nil {
		return err
	}

	w := template.NewWatcher(ctx.Templates, ctx.Engine, ctx.LookBack)
	w.OnReload = func(res template.Result, err error) {
		if err != nil {
			ctx.Printf("❌ %v\n", err)
			return
		}
		printResult(ctx, res)
	}
	ctx.Printf("👀 Watching %s (Ctrl+C to stop)\n", c.File)
	return w.Watch(ctx.Ctx(), u.ID, c.File)
}

// TemplateShowCmd prints the default template as an importable document.
type TemplateShowCmd struct {
	cli.UserFlag
}

func (c *TemplateShowCmd) Run(ctx *cli.Context) error {
	u, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	doc, err := ctx.Templates.Export(ctx.Ctx(), u.ID)
	if err != nil {
		return err
	}
	data, err := template.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = ctx.Out.Write(data)
	return err
}
