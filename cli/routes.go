package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/margin/output"
	"github.com/robinvdvleuten/margin/router"
)

type RoutesCmd struct {
	List    RoutesListCmd    `cmd:"" default:"1" help:"List the registered routes."`
	Resolve RoutesResolveCmd `cmd:"" help:"Resolve a path or hash location to the route it renders."`
}

type RoutesListCmd struct{}

func (cmd *RoutesListCmd) Run(ctx *kong.Context) error {
	styles := output.NewStyles(ctx.Stdout)
	routes := router.Default().Routes()

	width := 0
	for _, r := range routes {
		width = max(width, output.Width(r.Path))
	}

	for _, r := range routes {
		target := r.Component
		if r.IsRedirect() {
			target = styles.Dim("→ " + r.Redirect)
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "%s  %s\n", styles.Route(output.PadRight(r.Path, width)), target)
	}
	return nil
}

type RoutesResolveCmd struct {
	Location string `arg:"" help:"Path or location, e.g. / or #/dashboard."`
}

func (cmd *RoutesResolveCmd) Run(ctx *kong.Context) error {
	styles := output.NewStyles(ctx.Stdout)

	match, err := router.Default().Navigate(cmd.Location)
	if err != nil {
		return err
	}

	if match.RedirectedFrom != "" {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s %s\n", styles.Route(match.RedirectedFrom), styles.Dim("→ "+match.Route.Path))
	}
	_, _ = fmt.Fprintf(ctx.Stdout, "%s  %s  %s\n",
		styles.Route(match.Route.Path),
		match.Route.Component,
		styles.Dim(router.Href(match.Route.Path)))
	return nil
}
