package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/docker/go-units"

	"github.com/robinvdvleuten/margin/bundle"
	"github.com/robinvdvleuten/margin/router"
)

type BuildCmd struct {
	OutDir  string `help:"Output directory (default from config: frontend/dist)." type:"path"`
	NoEmpty bool   `help:"Keep existing files in the output directory."`
	Force   bool   `help:"Allow emptying an output directory outside the project."`
}

func (cmd *BuildCmd) Run(ctx *kong.Context, globals *Globals) error {
	env, err := setup(ctx, globals, "build")
	if err != nil {
		return err
	}
	defer env.finish()

	cfg := env.cfg.Build
	if cmd.OutDir != "" {
		cfg.OutDir = cmd.OutDir
	}

	res, err := bundle.Build(env.ctx, bundle.Config{
		SourceDir:   cfg.SourceDir,
		PublicDir:   cfg.PublicDir,
		OutDir:      cfg.OutDir,
		EmptyOutDir: cfg.EmptyOutDir && !cmd.NoEmpty,
		Entry:       cfg.Entry,
		Force:       cmd.Force,
		Logger:      env.logger,
	}, router.Default())
	if err != nil {
		_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer().Render(err))
		return NewCommandError(1)
	}

	if res.Removed > 0 {
		printInfof(ctx.Stdout, "Emptied %s (%d entries)", pathStyle.Render(res.OutDir), res.Removed)
	}
	for _, file := range res.Files {
		size := ""
		if info, err := os.Stat(filepath.Join(res.OutDir, file)); err == nil {
			size = dimStyle.Render(units.HumanSize(float64(info.Size())))
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "  %s  %s\n", pathStyle.Render(filepath.ToSlash(filepath.Join(filepath.Base(res.OutDir), file))), size)
	}
	printSuccess(ctx.Stdout, "Built "+res.Entry)
	return nil
}
