package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/margin/app"
)

type BackupCmd struct {
	Dest string `arg:"" optional:"" help:"Backup file (default margin_backup_<timestamp>.db in the current directory)." type:"path"`
	Yes  bool   `short:"y" help:"Overwrite an existing backup without asking."`
}

func (cmd *BackupCmd) Run(ctx *kong.Context, globals *Globals) error {
	env, err := setup(ctx, globals, "backup")
	if err != nil {
		return err
	}
	defer env.finish()

	dest := cmd.Dest
	if dest == "" {
		dest = app.BackupFileName(time.Now())
	}

	if _, err := os.Stat(dest); err == nil && !cmd.Yes {
		ok, err := promptYesNo(fmt.Sprintf("%s exists. Overwrite?", dest))
		if err != nil {
			return err
		}
		if !ok {
			printInfof(ctx.Stdout, "Backup cancelled")
			return nil
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	a, closeDB, err := env.openApp()
	if err != nil {
		return err
	}
	defer closeDB()

	info, err := a.GetDBInfo()
	if err != nil {
		return err
	}
	if err := a.BackupDatabase(dest); err != nil {
		return err
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Backed up %s (%s) to %s", info.Path, info.HumanSize, pathStyle.Render(dest)))
	return nil
}
