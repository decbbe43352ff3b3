package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/margin/output"
	"github.com/robinvdvleuten/margin/portfolio"
)

// PasswordFlag unlocks the encrypted amounts.
type PasswordFlag struct {
	Password string `help:"Password that unlocks the portfolio (prompted for when omitted)." env:"MARGIN_PASSWORD"`
}

type AssetsCmd struct {
	PasswordFlag
}

func (cmd *AssetsCmd) Run(ctx *kong.Context, globals *Globals) error {
	env, err := setup(ctx, globals, "assets")
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

	assets, err := a.GetAssets(env.ctx)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		printInfof(ctx.Stdout, "No holdings yet")
		return nil
	}

	writeAssets(ctx, assets)
	return nil
}

func writeAssets(ctx *kong.Context, assets []portfolio.Asset) {
	styles := output.NewStyles(ctx.Stdout)

	var nameWidth, sourceWidth, amountWidth int
	amounts := make([]string, len(assets))
	for i, a := range assets {
		amounts[i] = output.FormatAmount(a.Amount)
		nameWidth = max(nameWidth, output.Width(a.Code+" "+a.Name))
		sourceWidth = max(sourceWidth, output.Width(a.Source))
		amountWidth = max(amountWidth, output.Width(amounts[i]))
	}

	for i, a := range assets {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s  %s  %s  %s\n",
			output.PadRight(a.Code+" "+a.Name, nameWidth),
			styles.Keyword(output.PadRight(string(a.Type), 5)),
			styles.Dim(output.PadRight(a.Source, sourceWidth)),
			styles.Amount(output.PadLeft(amounts[i], amountWidth)))
	}

	totals := portfolio.SumTotals(assets)
	ratio := totals.Ratio()
	_, _ = fmt.Fprintln(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "stock %s  %s\n", styles.Amount(output.FormatAmount(totals.Stock)), output.FormatPercent(ratio.Stock))
	_, _ = fmt.Fprintf(ctx.Stdout, "bond  %s  %s\n", styles.Amount(output.FormatAmount(totals.Bond)), output.FormatPercent(ratio.Bond))
}
