package repo

import (
	"context"

	"github.com/peekabot/peekabot/internal/biz/domain"
)

// MessageRepo is the chat platform message interface
// Implemented per platform on top of the platform client
type MessageRepo interface {
	// SendText posts a text message to a channel and returns its ID
	SendText(ctx context.Context, channelID, text string) (string, error)

	// SendFile posts a file with optional text to a channel and returns the message ID
	SendFile(ctx context.Context, channelID, text string, file *domain.File) (string, error)

	// DeleteMessage deletes a message the bot posted
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// FetchAttachment downloads the bytes of a command attachment.
	// A non-success fetch returns an error matching domain.ErrDownloadFailure.
	FetchAttachment(ctx context.Context, att *domain.Attachment) ([]byte, error)
}

// Responder answers the user who invoked a command.
// Replies are private to the invoker where the platform allows it.
type Responder interface {
	// Acknowledge tells the platform the command was received.
	// Must be called before any slow work.
	Acknowledge(ctx context.Context) error

	// Reply sends a follow-up only the invoker can see
	Reply(ctx context.Context, text string) error
}
