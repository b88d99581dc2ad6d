package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/repo"
	"github.com/peekabot/peekabot/internal/data"
	"github.com/peekabot/peekabot/internal/server"
)

func parseDelay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	text := strings.Join(c.Args().Slice(), " ")
	seconds, err := domain.ParseDelay(text)
	if err != nil {
		return cli.Exit(fmt.Sprintf("%q: %v", text, err), 1)
	}
	if err := domain.CheckDelay(seconds, cfg.Expiry.MaxDelaySeconds); err != nil {
		return cli.Exit(fmt.Sprintf("%q: %v (%d > %d seconds)", text, err, seconds, cfg.Expiry.MaxDelaySeconds), 1)
	}

	fmt.Fprintln(c.App.Writer, seconds)
	return nil
}

func showHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.History.DBPath == "" {
		return cli.Exit("history is disabled: set HISTORY_DB_PATH or --history-db", 1)
	}

	historyRepo, err := data.NewHistoryRepo(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer historyRepo.Close()

	entries, err := historyRepo.Recent(context.Background(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.App.Writer, "No expiries recorded")
		return nil
	}

	for _, e := range entries {
		status := "deleted"
		if !e.Deleted {
			status = "missing"
		}
		line := fmt.Sprintf("%s  %s/%s  %-12s %-8s late %v",
			e.FiredAt.Format("2006-01-02 15:04:05"), e.ChannelID, e.MessageID, e.DelayText, status, e.Late().Round(time.Second))
		if len(e.Reactions) > 0 {
			line += "  " + e.Reactions.Format()
		}
		fmt.Fprintln(c.App.Writer, line)
	}
	return nil
}

func serveMCP(c *cli.Context) error {
	// stdout carries the protocol; send every log line to stderr instead
	stdout := os.Stdout
	os.Stdout = os.Stderr
	defer func() { os.Stdout = stdout }()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var historyRepo repo.HistoryRepo
	if cfg.History.DBPath != "" {
		historyRepo, err = data.NewHistoryRepo(cfg.History.DBPath)
		if err != nil {
			return err
		}
		defer historyRepo.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("[MCP] Serving tools on stdio")
	s := server.NewMCPServer(c.App.Version, historyRepo, cfg.Expiry.MaxDelaySeconds)
	return s.Run(ctx, &mcp.IOTransport{Reader: os.Stdin, Writer: stdout})
}
