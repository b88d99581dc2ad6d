package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/peekabot/peekabot/internal/conf"
)

// loadConfig reads the environment and applies command line overrides
func loadConfig(c *cli.Context) (*conf.Config, error) {
	cfg := conf.LoadFromEnv()

	if c.IsSet("platform") {
		cfg.Platform = strings.ToLower(c.String("platform"))
	}
	if c.IsSet("history-db") {
		cfg.History.DBPath = c.String("history-db")
	}
	if c.IsSet("api-port") {
		cfg.API.Port = c.Int("api-port")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("messages") {
		messages, err := conf.LoadMessagesConfig(c.String("messages"))
		if err != nil {
			return nil, fmt.Errorf("load messages: %w", err)
		}
		cfg.Messages = messages
	}
	return cfg, nil
}
