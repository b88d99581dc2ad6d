package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Message represents a received Feishu message
type Message struct {
	ChatID     string
	MsgID      string
	MsgType    string            // text, image, post
	ChatType   string            // p2p (private), group
	Content    string            // Text content (extracted from all message types)
	ImageKeys  []string          // Image keys for downloading
	Sender     *Sender           // Message sender info
	MentionMap map[string]string // Map from mention key (@_user_1) to real name
	CreateTime int64             // Message creation time (milliseconds Unix timestamp from Feishu)
}

// Sender represents the message sender
type Sender struct {
	SenderID   string // open_id
	SenderType string // user, app
	TenantKey  string
}

// Reaction is an emoji added to a message
type Reaction struct {
	EventID      string // Same across redeliveries of one event
	MessageID    string
	EmojiType    string // e.g. THUMBSUP, SMILE
	OperatorID   string // open_id of the reacting user
	OperatorType string // user, app
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// ReactionHandler is the callback for added reactions
type ReactionHandler func(r *Reaction)

// Client is the Feishu API client
type Client struct {
	appID      string
	appSecret  string
	larkCli    *lark.Client
	wsCli      *larkws.Client
	onMessage  MessageHandler
	onReaction ReactionHandler
	logLevel   larkcore.LogLevel
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
		logLevel:  larkcore.LogLevelInfo,
	}
}

// SetDebug switches the SDK's logging to debug level
func (c *Client) SetDebug(debug bool) {
	if debug {
		c.logLevel = larkcore.LogLevelDebug
	} else {
		c.logLevel = larkcore.LogLevelInfo
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// OnReaction sets the reaction handler
func (c *Client) OnReaction(handler ReactionHandler) {
	c.onReaction = handler
}

// Start connects to Feishu via WebSocket and blocks until ctx is done or
// the connection fails
func (c *Client) Start(ctx context.Context) error {
	// Note: Must return quickly so SDK can send ACK, otherwise Feishu will retry due to timeout
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleMessage(event)
			return nil
		}).
		OnP2MessageReactionCreatedV1(func(ctx context.Context, event *larkim.P2MessageReactionCreatedV1) error {
			go c.handleReaction(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(c.logLevel),
	)

	fmt.Println("[Feishu] Starting WebSocket connection...")

	// wsCli.Start does not return on ctx cancellation once connected
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.wsCli.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("websocket: %w", err)
		}
		return nil
	case <-ctx.Done():
		fmt.Println("[Feishu] Stopping")
		return nil
	}
}

// handleMessage processes incoming Feishu messages
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	if event.Event == nil || event.Event.Message == nil {
		return
	}
	msg := ParseMessageEvent(event)
	if msg == nil {
		return
	}

	fmt.Printf("[Feishu] Received %s from %s chat %s: %s\n", msg.MsgType, msg.ChatType, msg.ChatID, truncate(msg.Content, 50))

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// ParseMessageEvent converts a receive event into a Message.
// Returns nil for bot-sent messages and unsupported message types.
func ParseMessageEvent(event *larkim.P2MessageReceiveV1) *Message {
	rawMsg := event.Event.Message

	// Filter out messages sent by the bot itself to prevent loops
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil {
		if *event.Event.Sender.SenderType == "app" {
			return nil
		}
	}

	msg := &Message{
		ChatID:     deref(rawMsg.ChatId),
		MsgID:      deref(rawMsg.MessageId),
		MsgType:    deref(rawMsg.MessageType),
		ChatType:   deref(rawMsg.ChatType),
		MentionMap: make(map[string]string),
	}

	// Parse create time (milliseconds Unix timestamp)
	if rawMsg.CreateTime != nil {
		if ts, err := strconv.ParseInt(*rawMsg.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}

	if event.Event.Sender != nil {
		msg.Sender = &Sender{
			SenderType: deref(event.Event.Sender.SenderType),
			TenantKey:  deref(event.Event.Sender.TenantKey),
		}
		if event.Event.Sender.SenderId != nil {
			msg.Sender.SenderID = deref(event.Event.Sender.SenderId.OpenId)
		}
	}

	for _, mention := range rawMsg.Mentions {
		if mention.Key != nil && mention.Name != nil {
			msg.MentionMap[*mention.Key] = *mention.Name
		}
	}

	content := deref(rawMsg.Content)
	switch msg.MsgType {
	case "text":
		msg.Content = parseTextContent(content, msg.MentionMap)
	case "image":
		msg.ImageKeys = parseImageContent(content)
		msg.Content = "[Image]"
	case "post":
		msg.Content, msg.ImageKeys = parsePostContent(content, msg.MentionMap)
	default:
		fmt.Printf("[Feishu] Unsupported message type: %s\n", msg.MsgType)
		return nil
	}
	return msg
}

// handleReaction processes reaction events
func (c *Client) handleReaction(event *larkim.P2MessageReactionCreatedV1) {
	if event.Event == nil {
		return
	}

	r := &Reaction{
		MessageID:    deref(event.Event.MessageId),
		OperatorType: deref(event.Event.OperatorType),
	}
	if event.EventV2Base != nil && event.EventV2Base.Header != nil {
		r.EventID = event.EventV2Base.Header.EventID
	}
	if event.Event.ReactionType != nil {
		r.EmojiType = deref(event.Event.ReactionType.EmojiType)
	}
	if event.Event.UserId != nil {
		r.OperatorID = deref(event.Event.UserId.OpenId)
	}

	if r.MessageID == "" || r.EmojiType == "" {
		return
	}

	if c.onReaction != nil {
		c.onReaction(r)
	}
}

// parseTextContent extracts text from a text message
// It also replaces mention placeholders (@_user_1) with real names
func parseTextContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return replaceMentions(parsed.Text, mentionMap)
}

// parseImageContent extracts image key from an image message
func parseImageContent(content string) []string {
	var parsed struct {
		ImageKey string `json:"image_key"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil
	}
	if parsed.ImageKey == "" {
		return nil
	}
	return []string{parsed.ImageKey}
}

// parsePostContent extracts text and images from a rich text message.
// Text elements of one line are concatenated; lines are joined by "\n".
func parsePostContent(content string, mentionMap map[string]string) (string, []string) {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag      string `json:"tag"`
			Text     string `json:"text,omitempty"`
			ImageKey string `json:"image_key,omitempty"`
			UserID   string `json:"user_id,omitempty"` // for "at" tags
		} `json:"content"`
	}

	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", nil
	}

	var textParts []string
	var imageKeys []string

	if parsed.Title != "" {
		textParts = append(textParts, parsed.Title)
	}

	for _, line := range parsed.Content {
		var lineParts []string
		for _, elem := range line {
			switch elem.Tag {
			case "text":
				if elem.Text != "" {
					lineParts = append(lineParts, elem.Text)
				}
			case "at":
				if elem.UserID != "" {
					if name, ok := mentionMap[elem.UserID]; ok {
						lineParts = append(lineParts, "@"+name)
					} else {
						lineParts = append(lineParts, "@"+elem.UserID)
					}
				}
			case "img":
				if elem.ImageKey != "" {
					imageKeys = append(imageKeys, elem.ImageKey)
				}
			}
		}
		if len(lineParts) > 0 {
			textParts = append(textParts, strings.Join(lineParts, ""))
		}
	}

	result := strings.Join(textParts, "\n")
	result = replaceMentions(result, mentionMap)
	return result, imageKeys
}

// replaceMentions replaces mention placeholders (@_user_1, @_user_2, etc.) with real names
func replaceMentions(text string, mentionMap map[string]string) string {
	for key, name := range mentionMap {
		text = strings.ReplaceAll(text, key, "@"+name)
	}
	return text
}

// DownloadImage downloads an image attached to a message
func (c *Client) DownloadImage(ctx context.Context, messageID, imageKey string) ([]byte, error) {
	req := larkim.NewGetMessageResourceReqBuilder().
		MessageId(messageID).
		FileKey(imageKey).
		Type("image").
		Build()

	resp, err := c.larkCli.Im.MessageResource.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if !resp.Success() {
		return nil, &APIError{Op: "get image", Code: resp.Code, Msg: resp.Msg}
	}

	data, err := io.ReadAll(resp.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	fmt.Printf("[Feishu] Downloaded image %s (%d bytes)\n", imageKey, len(data))
	return data, nil
}

// UploadImage uploads an image for use in messages and returns its image_key
func (c *Client) UploadImage(ctx context.Context, data []byte) (string, error) {
	req := larkim.NewCreateImageReqBuilder().
		Body(larkim.NewCreateImageReqBodyBuilder().
			ImageType("message").
			Image(bytes.NewReader(data)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Image.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("upload image failed: %w", err)
	}
	if !resp.Success() {
		return "", &APIError{Op: "upload image", Code: resp.Code, Msg: resp.Msg}
	}
	if resp.Data == nil || resp.Data.ImageKey == nil {
		return "", fmt.Errorf("upload image: no image_key returned")
	}

	fmt.Printf("[Feishu] Uploaded image (%d bytes) as %s\n", len(data), *resp.Data.ImageKey)
	return *resp.Data.ImageKey, nil
}

// SendText sends a text message to a chat and returns its message ID
func (c *Client) SendText(ctx context.Context, chatID, text string) (string, error) {
	content, _ := json.Marshal(map[string]string{"text": text})
	return c.create(ctx, larkim.ReceiveIdTypeChatId, chatID, larkim.MsgTypeText, string(content))
}

// SendTextToUser sends a direct text message to a user by open_id
func (c *Client) SendTextToUser(ctx context.Context, openID, text string) error {
	content, _ := json.Marshal(map[string]string{"text": text})
	_, err := c.create(ctx, larkim.ReceiveIdTypeOpenId, openID, larkim.MsgTypeText, string(content))
	return err
}

// SendImagePost sends a rich text (post) message made of an uploaded image
// followed by optional text, and returns its message ID
func (c *Client) SendImagePost(ctx context.Context, chatID, imageKey, text string) (string, error) {
	return c.create(ctx, larkim.ReceiveIdTypeChatId, chatID, larkim.MsgTypePost, BuildImagePost(imageKey, text))
}

// BuildImagePost renders the post content for SendImagePost
func BuildImagePost(imageKey, text string) string {
	content := [][]map[string]interface{}{
		{{"tag": "img", "image_key": imageKey}},
	}
	for _, line := range strings.Split(strings.TrimLeft(text, "\n"), "\n") {
		if line == "" {
			continue
		}
		content = append(content, []map[string]interface{}{{"tag": "text", "text": line}})
	}

	post := map[string]interface{}{
		"zh_cn": map[string]interface{}{
			"title":   "",
			"content": content,
		},
	}
	contentJSON, _ := json.Marshal(post)
	return string(contentJSON)
}

func (c *Client) create(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send %s failed: %w", msgType, err)
	}
	if !resp.Success() {
		return "", &APIError{Op: "send " + msgType, Code: resp.Code, Msg: resp.Msg}
	}

	messageID := ""
	if resp.Data != nil {
		messageID = deref(resp.Data.MessageId)
	}
	fmt.Printf("[Feishu] %s message %s sent to %s\n", msgType, messageID, receiveID)
	return messageID, nil
}

// DeleteMessage recalls a message the bot sent
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	req := larkim.NewDeleteMessageReqBuilder().
		MessageId(messageID).
		Build()

	resp, err := c.larkCli.Im.Message.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("delete message failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "delete message", Code: resp.Code, Msg: resp.Msg}
	}

	fmt.Printf("[Feishu] Message %s deleted\n", messageID)
	return nil
}

// AddReaction adds an emoji reaction to a message
func (c *Client) AddReaction(ctx context.Context, messageID, emojiType string) error {
	req := larkim.NewCreateMessageReactionReqBuilder().
		MessageId(messageID).
		Body(larkim.NewCreateMessageReactionReqBodyBuilder().
			ReactionType(larkim.NewEmojiBuilder().EmojiType(emojiType).Build()).
			Build()).
		Build()

	resp, err := c.larkCli.Im.MessageReaction.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("add reaction failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "add reaction", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// FormatMention returns the text-message markup that mentions a user
func FormatMention(openID string) string {
	return fmt.Sprintf("<at user_id=\"%s\"></at>", openID)
}

// APIError is a Feishu response with a non-zero code
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Op, e.Code, e.Msg)
}

// Helper functions

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
