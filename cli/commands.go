package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Config    string `help:"Configuration file." short:"c" default:"margin.toml"`
	Telemetry bool   `help:"Show timing telemetry for operations."`
}

type Commands struct {
	Globals

	Serve    ServeCmd    `cmd:"" help:"Serve the built frontend and its API."`
	Dev      DevCmd      `cmd:"" help:"Start the development server with hot reload."`
	Build    BuildCmd    `cmd:"" help:"Build the frontend into the output directory."`
	Desktop  DesktopCmd  `cmd:"" help:"Open margin in a native window."`
	MCP      MCPCmd      `cmd:"" name:"mcp" help:"Serve agent tools over MCP on stdin/stdout."`
	Routes   RoutesCmd   `cmd:"" help:"Inspect the frontend route table."`
	Assets   AssetsCmd   `cmd:"" help:"List holdings and the current allocation."`
	Snapshot SnapshotCmd `cmd:"" help:"Record a snapshot of the current allocation."`
	Backup   BackupCmd   `cmd:"" help:"Copy the database to a backup file."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging margin."`
}

func versionString() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

func commitString() string {
	if CommitSHA == "" {
		return "local"
	}
	return CommitSHA
}
