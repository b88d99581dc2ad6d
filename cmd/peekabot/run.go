package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/peekabot/peekabot/internal/api"
	"github.com/peekabot/peekabot/internal/biz"
	"github.com/peekabot/peekabot/internal/conf"
	"github.com/peekabot/peekabot/internal/data"
	"github.com/peekabot/peekabot/internal/infra/discord"
	"github.com/peekabot/peekabot/internal/infra/feishu"
	"github.com/peekabot/peekabot/internal/server"
	"github.com/peekabot/peekabot/internal/service"
)

func runBot(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	repos, err := data.NewRepositories(cfg.History.DBPath)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}
	defer repos.Close()

	if cfg.History.DBPath != "" {
		fmt.Printf("[Peekabot] History DB: %s\n", cfg.History.DBPath)
	}

	// Optional local status API
	var apiServer *api.Server
	if cfg.API.Port > 0 {
		apiServer = api.NewServer(repos.History, cfg.Platform, cfg.API.Port)
		go func() {
			if err := apiServer.Start(); err != nil {
				fmt.Printf("[Peekabot] API server error: %v\n", err)
			}
		}()
		defer apiServer.Stop()
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &bot{cfg: cfg, repos: repos, apiServer: apiServer}

	var run service.RunFunc
	switch cfg.Platform {
	case conf.PlatformFeishu:
		run = b.runFeishu
	default:
		run = b.runDiscord
	}

	fmt.Printf("[Peekabot] Starting on %s (reaction summary: %v)\n", cfg.Platform, cfg.Expiry.ReactionSummary)
	service.NewSupervisor(run, cfg.Expiry.RestartBackoff()).Run(ctx)

	fmt.Println("\nShutting down...")
	return nil
}

// bot builds one platform session per supervisor run. Pending expiries and
// reaction records belong to the session and are dropped when it ends.
type bot struct {
	cfg       *conf.Config
	repos     *data.Repositories
	apiServer *api.Server // nil when the API is disabled
}

func (b *bot) newCore(repos *data.Repositories) (*biz.Core, *service.ReactionSweeper) {
	core := biz.NewCore(repos.Message, repos.History, b.cfg.ToExpireConfig())
	sweeper := service.NewReactionSweeper(
		core.Tracker,
		repos.History,
		b.cfg.Expiry.SweepInterval(),
		b.cfg.Expiry.ReactionMaxAge(),
		b.cfg.History.Retention(),
	)
	if b.apiServer != nil {
		b.apiServer.SetCore(core)
	}
	return core, sweeper
}

func (b *bot) runDiscord(ctx context.Context) error {
	client, err := discord.NewClient(b.cfg.Discord.Token)
	if err != nil {
		return err
	}
	client.SetDebug(b.cfg.Debug)

	core, sweeper := b.newCore(b.repos.WithMessage(data.NewDiscordRepo(client)))
	defer core.Stop()

	return server.NewDiscordServer(client, core.Expire, sweeper).Start(ctx)
}

func (b *bot) runFeishu(ctx context.Context) error {
	client := feishu.NewClient(b.cfg.Feishu.AppID, b.cfg.Feishu.AppSecret)
	client.SetDebug(b.cfg.Debug)

	core, sweeper := b.newCore(b.repos.WithMessage(data.NewFeishuRepo(client)))
	defer core.Stop()

	return server.NewFeishuServer(client, core.Expire, sweeper).Start(ctx)
}
