package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "peekabot"
	app.Version = version
	app.Usage = "Chat bot that posts images and deletes them after a delay"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "platform",
			Usage: "chat platform: discord or feishu (overrides PLATFORM)",
		},
		&cli.StringFlag{
			Name:  "messages",
			Usage: "path to messages.yaml (overrides MESSAGES_CONFIG_PATH)",
		},
		&cli.StringFlag{
			Name:  "history-db",
			Usage: "path to the expiry history database (overrides HISTORY_DB_PATH)",
		},
		&cli.IntFlag{
			Name:  "api-port",
			Usage: "serve the local status API on this port, 0 disables (overrides API_PORT)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "verbose platform SDK logging (overrides DEBUG)",
		},
	}
	app.Action = runBot
	app.Commands = []*cli.Command{
		{
			Action:      runBot,
			Name:        "run",
			Usage:       "Start the bot",
			Description: `Connects to the configured platform and restarts the session after any failure.`,
		},
		{
			Action:      parseDelay,
			Name:        "parse-delay",
			Usage:       "Print the number of seconds a delay stands for",
			ArgsUsage:   "<delay>",
			Description: `Parses a delay such as "10 minutes" the same way the /expire command does.`,
		},
		{
			Action:    showHistory,
			Name:      "history",
			Usage:     "List recently fired expiries",
			ArgsUsage: " ",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Value: 20,
					Usage: "number of entries to show",
				},
			},
		},
		{
			Action:      serveMCP,
			Name:        "mcp",
			Usage:       "Serve parse_delay and expiry_history as MCP tools over stdio",
			ArgsUsage:   " ",
			Description: `Runs until the MCP client disconnects. Nothing else is written to stdout.`,
		},
	}
	return app
}
