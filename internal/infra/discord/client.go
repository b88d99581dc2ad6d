package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Intents the bot needs: slash commands, posting in guild channels and reaction events
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions

// MaxDownloadSize caps attachment downloads (Discord's upload limit for boosted servers)
const MaxDownloadSize = 100 << 20

// ReadyHandler is called every time the gateway session becomes ready
type ReadyHandler func(r *discordgo.Ready)

// InteractionHandler is called for every interaction
type InteractionHandler func(i *discordgo.InteractionCreate)

// ReactionHandler is called when a reaction is added to any visible message
type ReactionHandler func(r *discordgo.MessageReactionAdd)

// Client is the Discord API client
type Client struct {
	token      string
	session    *discordgo.Session
	httpClient *http.Client

	onReady       ReadyHandler
	onInteraction InteractionHandler
	onReaction    ReactionHandler
}

// NewClient creates a new Discord client
func NewClient(token string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = Intents
	session.LogLevel = discordgo.LogWarning

	return &Client{
		token:      token,
		session:    session,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// SetDebug switches discordgo's own logging to debug level
func (c *Client) SetDebug(debug bool) {
	if debug {
		c.session.LogLevel = discordgo.LogDebug
	} else {
		c.session.LogLevel = discordgo.LogWarning
	}
}

// SetHTTPClient replaces the client used for attachment downloads
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// OnReady sets the ready handler
func (c *Client) OnReady(handler ReadyHandler) {
	c.onReady = handler
}

// OnInteraction sets the interaction handler
func (c *Client) OnInteraction(handler InteractionHandler) {
	c.onInteraction = handler
}

// OnReaction sets the reaction-add handler
func (c *Client) OnReaction(handler ReactionHandler) {
	c.onReaction = handler
}

// Start opens the gateway connection and blocks until ctx is done
func (c *Client) Start(ctx context.Context) error {
	c.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		fmt.Printf("[Discord] Logged in as %s (%s)\n", r.User.Username, r.User.ID)
		if c.onReady != nil {
			c.onReady(r)
		}
	})
	c.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if c.onInteraction != nil {
			// Handlers run in their own goroutine already (SyncEvents is false)
			c.onInteraction(i)
		}
	})
	c.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if c.onReaction != nil {
			c.onReaction(r)
		}
	})

	fmt.Println("[Discord] Opening gateway connection...")
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer c.session.Close()

	<-ctx.Done()
	fmt.Println("[Discord] Closing gateway connection")
	return nil
}

// ApplicationID returns the bot user's ID once the session is ready
func (c *Client) ApplicationID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

// SyncCommands overwrites the bot's global slash commands
func (c *Client) SyncCommands(ctx context.Context, commands []*discordgo.ApplicationCommand) (int, error) {
	appID := c.ApplicationID()
	if appID == "" {
		return 0, fmt.Errorf("sync commands: session not ready")
	}

	synced, err := c.session.ApplicationCommandBulkOverwrite(appID, "", commands, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("sync commands: %w", err)
	}

	fmt.Printf("[Discord] Synced %d command(s)\n", len(synced))
	return len(synced), nil
}

// SendText posts a text message to a channel and returns its ID
func (c *Client) SendText(ctx context.Context, channelID, text string) (string, error) {
	msg, err := c.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message failed: %w", err)
	}

	fmt.Printf("[Discord] Message %s sent to %s\n", msg.ID, channelID)
	return msg.ID, nil
}

// SendFile posts a file with optional text to a channel and returns the message ID
func (c *Client) SendFile(ctx context.Context, channelID, text, name, contentType string, data []byte) (string, error) {
	send := &discordgo.MessageSend{
		Content: text,
		Files: []*discordgo.File{{
			Name:        name,
			ContentType: contentType,
			Reader:      bytes.NewReader(data),
		}},
	}

	msg, err := c.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send file failed: %w", err)
	}

	fmt.Printf("[Discord] File %s (%d bytes) sent to %s as %s\n", name, len(data), channelID, msg.ID)
	return msg.ID, nil
}

// DeleteMessage deletes a message
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := c.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete message failed: %w", err)
	}

	fmt.Printf("[Discord] Message %s deleted from %s\n", messageID, channelID)
	return nil
}

// Defer acknowledges an interaction with a private "thinking" state.
// Discord requires this within 3 seconds.
func (c *Client) Defer(ctx context.Context, i *discordgo.Interaction) error {
	err := c.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("defer interaction failed: %w", err)
	}
	return nil
}

// Followup sends a private follow-up to a deferred interaction
func (c *Client) Followup(ctx context.Context, i *discordgo.Interaction, text string) error {
	_, err := c.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("followup failed: %w", err)
	}
	return nil
}

// Respond answers an interaction immediately with a private message
func (c *Client) Respond(ctx context.Context, i *discordgo.Interaction, text string) error {
	err := c.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("respond failed: %w", err)
	}
	return nil
}

// Download fetches an attachment from Discord's CDN
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	return Download(ctx, c.httpClient, url)
}

// Download fetches url and returns the body. A non-200 status is reported
// as *StatusError.
func Download(ctx context.Context, hc *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("attachment larger than %d bytes", MaxDownloadSize)
	}
	return data, nil
}

// StatusError is a download that completed with a non-200 status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}
