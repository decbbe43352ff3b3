package cli

import (
	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/margin/config"
	"github.com/robinvdvleuten/margin/router"
)

// DoctorCmd provides doctor utilities for debugging margin.
type DoctorCmd struct {
	Routes DoctorRoutesCmd `cmd:"" help:"Dump the route table and resolution of every path."`
	Config DoctorConfigCmd `cmd:"" help:"Dump the effective configuration."`
}

type DoctorRoutesCmd struct{}

func (cmd *DoctorRoutesCmd) Run(ctx *kong.Context) error {
	table := router.Default()
	repr.New(ctx.Stdout).Println(table.Routes())

	matches := make(map[string]router.Match, table.Len())
	for _, r := range table.Routes() {
		m, err := table.Resolve(r.Path)
		if err != nil {
			return err
		}
		matches[r.Path] = m
	}
	repr.New(ctx.Stdout).Println(matches)
	return nil
}

type DoctorConfigCmd struct{}

// Run prints the configuration after the file and MARGIN_* overrides have
// been applied.
func (cmd *DoctorConfigCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return err
	}
	repr.New(ctx.Stdout, repr.Indent("  ")).Println(cfg)
	return nil
}
