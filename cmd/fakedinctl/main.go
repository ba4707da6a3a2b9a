// Command fakedinctl runs maintenance tasks against the FakedIn database.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"FakedIn-backend/internal/config"
	"FakedIn-backend/internal/logging"
)

// CLI is the fakedinctl command tree
type CLI struct {
	LogLevel  string `help:"Log level." default:"info" env:"LOG_LEVEL"`
	LogFormat string `help:"Log format: json or console." enum:"json,console" default:"console" env:"LOG_FORMAT"`

	Migrate MigrateCmd `cmd:"" help:"Create or update the database schema."`
	CleanDB CleanDBCmd `cmd:"" name:"clean-db" help:"Drop every table in the public schema."`
	Seed    SeedCmd    `cmd:"" help:"Insert demo recruiters, applicants and jobs."`
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("fakedinctl"),
		kong.Description("FakedIn database maintenance."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	db, err := config.LoadDB()
	kctx.FatalIfErrorf(err)

	runCtx := &Context{
		DB:     db,
		Logger: logging.New(cli.LogLevel, cli.LogFormat, os.Stderr),
		In:     os.Stdin,
		Out:    os.Stdout,
	}
	if err := kctx.Run(runCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
