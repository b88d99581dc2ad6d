package server

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/usecase"
	"github.com/peekabot/peekabot/internal/data"
	"github.com/peekabot/peekabot/internal/infra/discord"
	"github.com/peekabot/peekabot/internal/service"
)

// Slash command names
const (
	CommandExpire     = "expire"
	CommandTestDelete = "testdelete"
	CommandHelp       = "peekabot"
)

// Commands returns the slash commands registered on Discord
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandExpire,
			Description: "Upload an image that deletes itself after a delay",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "image",
					Description: "The image to upload",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "delay",
					Description: "How long before deleting, e.g. '10 minutes' or '2 hours' (max 24 hours)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "show_name",
					Description: "Show your name in the deletion message (default: yes)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "caption",
					Description: "A short message shown under the image",
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "spoiler",
					Description: "Hide the image behind a spoiler",
				},
			},
		},
		{
			Name:        CommandTestDelete,
			Description: "Post a test message that deletes itself after 10 seconds",
		},
		{
			Name:        CommandHelp,
			Description: "Show how to use Peek-a-bot",
		},
	}
}

// DiscordServer routes Discord gateway events to the usecase
type DiscordServer struct {
	client   *discord.Client
	expireUC *usecase.ExpireUsecase
	sweeper  *service.ReactionSweeper

	ctx context.Context
}

// NewDiscordServer creates a new Discord server
func NewDiscordServer(client *discord.Client, expireUC *usecase.ExpireUsecase, sweeper *service.ReactionSweeper) *DiscordServer {
	return &DiscordServer{
		client:   client,
		expireUC: expireUC,
		sweeper:  sweeper,
	}
}

// Start connects to Discord and blocks until ctx is done
func (s *DiscordServer) Start(ctx context.Context) error {
	s.ctx = ctx

	s.client.OnReady(s.handleReady)
	s.client.OnInteraction(s.handleInteraction)
	s.client.OnReaction(s.handleReaction)

	defer s.sweeper.Stop()
	return s.client.Start(ctx)
}

// handleReady syncs commands and starts the sweeper. Ready fires again on
// every reconnect; the sweeper only starts once.
func (s *DiscordServer) handleReady(r *discordgo.Ready) {
	if _, err := s.client.SyncCommands(s.ctx, Commands()); err != nil {
		fmt.Printf("[Server] Failed to sync commands: %v\n", err)
	}
	s.sweeper.Start(s.ctx)
}

func (s *DiscordServer) handleInteraction(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	fmt.Printf("[Server] /%s in %s\n", name, i.ChannelID)

	inv := InvocationFromInteraction(i.Interaction)
	resp := data.NewDiscordResponder(s.client, i.Interaction)

	switch name {
	case CommandExpire:
		s.expireUC.Expire(s.ctx, resp, ExpireRequestFromInteraction(i.Interaction))
	case CommandTestDelete:
		s.expireUC.TestDelete(s.ctx, resp, inv)
	case CommandHelp:
		if err := s.client.Respond(s.ctx, i.Interaction, s.expireUC.Help()); err != nil {
			fmt.Printf("[Server] Failed to send help: %v\n", err)
		}
	default:
		fmt.Printf("[Server] Unknown command: %s\n", name)
	}
}

func (s *DiscordServer) handleReaction(r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil {
		return
	}
	s.expireUC.OnReaction(r.MessageID, r.Emoji.MessageFormat())
}

// InvocationFromInteraction extracts the channel and invoking member.
// Guild interactions carry Member, direct messages carry User.
func InvocationFromInteraction(i *discordgo.Interaction) domain.Invocation {
	inv := domain.Invocation{ChannelID: i.ChannelID}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user != nil {
		inv.Member = domain.Member{
			UserID:  user.ID,
			Name:    user.Username,
			Mention: user.Mention(),
		}
	}
	return inv
}

// ExpireRequestFromInteraction builds an expire request from the command options.
// A missing image leaves the attachment empty.
func ExpireRequestFromInteraction(i *discordgo.Interaction) *domain.ExpireRequest {
	cmd := i.ApplicationCommandData()

	req := domain.NewExpireRequest(InvocationFromInteraction(i), domain.Attachment{}, "")
	for _, opt := range cmd.Options {
		switch opt.Name {
		case "image":
			id, _ := opt.Value.(string)
			if cmd.Resolved == nil {
				continue
			}
			if att, ok := cmd.Resolved.Attachments[id]; ok && att != nil {
				req.Attachment = domain.Attachment{
					URL:         att.URL,
					Filename:    att.Filename,
					ContentType: att.ContentType,
				}
			}
		case "delay":
			req.DelayText = opt.StringValue()
		case "show_name":
			req.ShowName = opt.BoolValue()
		case "caption":
			req.Caption = opt.StringValue()
		case "spoiler":
			req.Spoiler = opt.BoolValue()
		}
	}
	return req
}
