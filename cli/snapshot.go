package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/margin/output"
)

type SnapshotCmd struct {
	PasswordFlag
}

func (cmd *SnapshotCmd) Run(ctx *kong.Context, globals *Globals) error {
	env, err := setup(ctx, globals, "snapshot")
	if err != nil {
		return err
	}
	defer env.finish()

	a, closeDB, err := env.openApp()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := env.unlock(a, cmd.Password); err != nil {
		return err
	}

	snap, err := a.SaveSnapshot(env.ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		printInfof(ctx.Stdout, "Portfolio is empty, nothing recorded")
		return nil
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Recorded snapshot #%d: stock %s, bond %s",
		snap.ID, output.FormatPercent(snap.StockRatio), output.FormatPercent(snap.BondRatio)))
	return nil
}
