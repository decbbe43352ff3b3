package cli

import (
	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/margin/mcpserver"
	"github.com/robinvdvleuten/margin/router"
)

type MCPCmd struct{}

// Run serves MCP on stdin/stdout. Logs go to stderr so they never corrupt
// the protocol stream.
func (cmd *MCPCmd) Run(ctx *kong.Context, globals *Globals) error {
	env, err := setup(ctx, globals, "mcp")
	if err != nil {
		return err
	}
	defer env.finish()

	a, closeDB, err := env.openApp()
	if err != nil {
		return err
	}
	defer closeDB()

	return mcpserver.New(a, router.Default(), versionString(), env.logger).ServeStdio()
}
