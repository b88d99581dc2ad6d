package data

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/repo"
	"github.com/peekabot/peekabot/internal/infra/discord"
)

// discordRepo implements the message repository on Discord
type discordRepo struct {
	client *discord.Client
}

// NewDiscordRepo creates a new Discord repository
func NewDiscordRepo(client *discord.Client) repo.MessageRepo {
	return &discordRepo{client: client}
}

// SendText posts a text message
func (r *discordRepo) SendText(ctx context.Context, channelID, text string) (string, error) {
	return r.client.SendText(ctx, channelID, text)
}

// SendFile posts a file with optional text
func (r *discordRepo) SendFile(ctx context.Context, channelID, text string, file *domain.File) (string, error) {
	return r.client.SendFile(ctx, channelID, text, file.Name, file.ContentType, file.Data)
}

// DeleteMessage deletes a message
func (r *discordRepo) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return r.client.DeleteMessage(ctx, channelID, messageID)
}

// FetchAttachment downloads the attachment from its CDN URL
func (r *discordRepo) FetchAttachment(ctx context.Context, att *domain.Attachment) ([]byte, error) {
	data, err := r.client.Download(ctx, att.URL)
	if err == nil {
		return data, nil
	}

	var statusErr *discord.StatusError
	if errors.As(err, &statusErr) {
		return nil, &domain.DownloadError{Source: att.Source(), StatusCode: statusErr.StatusCode}
	}
	// Transport failures and oversized bodies are not a rejected download
	return nil, err
}

// discordResponder answers a slash command with private follow-ups
type discordResponder struct {
	client      *discord.Client
	interaction *discordgo.Interaction
}

// NewDiscordResponder creates a responder for one interaction
func NewDiscordResponder(client *discord.Client, interaction *discordgo.Interaction) repo.Responder {
	return &discordResponder{client: client, interaction: interaction}
}

// Acknowledge defers the interaction response
func (r *discordResponder) Acknowledge(ctx context.Context) error {
	return r.client.Defer(ctx, r.interaction)
}

// Reply sends an ephemeral follow-up
func (r *discordResponder) Reply(ctx context.Context, text string) error {
	return r.client.Followup(ctx, r.interaction, text)
}
