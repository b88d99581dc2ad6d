package data

import (
	"context"
	"errors"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/repo"
	"github.com/peekabot/peekabot/internal/infra/feishu"
)

// AckEmoji is the reaction placed on a command message when it is received
const AckEmoji = "OnIt"

// feishuRepo implements the message repository on Feishu
type feishuRepo struct {
	client *feishu.Client
}

// NewFeishuRepo creates a new Feishu repository
func NewFeishuRepo(client *feishu.Client) repo.MessageRepo {
	return &feishuRepo{client: client}
}

// SendText sends a text message to a chat
func (r *feishuRepo) SendText(ctx context.Context, chatID, text string) (string, error) {
	return r.client.SendText(ctx, chatID, text)
}

// SendFile uploads the image and posts it with the text below it.
// Feishu has no spoiler attachments, so the file name is not used.
func (r *feishuRepo) SendFile(ctx context.Context, chatID, text string, file *domain.File) (string, error) {
	imageKey, err := r.client.UploadImage(ctx, file.Data)
	if err != nil {
		return "", err
	}
	return r.client.SendImagePost(ctx, chatID, imageKey, text)
}

// DeleteMessage recalls a message. Feishu message IDs are global.
func (r *feishuRepo) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	return r.client.DeleteMessage(ctx, messageID)
}

// FetchAttachment downloads the image attached to the command message
func (r *feishuRepo) FetchAttachment(ctx context.Context, att *domain.Attachment) ([]byte, error) {
	data, err := r.client.DownloadImage(ctx, att.MessageID, att.ResourceKey)
	if err != nil {
		return nil, downloadError(att.Source(), err)
	}
	return data, nil
}

// downloadError reports an API rejection as a download failure.
// Any other error is returned unchanged.
func downloadError(source string, err error) error {
	var apiErr *feishu.APIError
	if errors.As(err, &apiErr) {
		return &domain.DownloadError{Source: source, Err: apiErr}
	}
	return err
}

// feishuResponder answers a command by direct message to the sender,
// falling back to the chat when the sender is unknown
type feishuResponder struct {
	client    *feishu.Client
	chatID    string
	messageID string
	openID    string
}

// NewFeishuResponder creates a responder for one command message
func NewFeishuResponder(client *feishu.Client, chatID, messageID, openID string) repo.Responder {
	return &feishuResponder{
		client:    client,
		chatID:    chatID,
		messageID: messageID,
		openID:    openID,
	}
}

// Acknowledge reacts to the command message
func (r *feishuResponder) Acknowledge(ctx context.Context) error {
	return r.client.AddReaction(ctx, r.messageID, AckEmoji)
}

// Reply sends a direct message to the invoker
func (r *feishuResponder) Reply(ctx context.Context, text string) error {
	if r.openID == "" {
		_, err := r.client.SendText(ctx, r.chatID, text)
		return err
	}
	return r.client.SendTextToUser(ctx, r.openID, text)
}
