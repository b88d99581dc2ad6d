package server

import (
	"context"
	"fmt"
	"time"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/usecase"
	"github.com/peekabot/peekabot/internal/data"
	"github.com/peekabot/peekabot/internal/infra/feishu"
	"github.com/peekabot/peekabot/internal/service"
)

// FeishuServer handles Feishu message processing
type FeishuServer struct {
	feishuClient *feishu.Client
	expireUC     *usecase.ExpireUsecase
	sweeper      *service.ReactionSweeper

	// Deduplication of redelivered events
	seenMsgs      *seenCache
	seenReactions *seenCache

	ctx context.Context
}

// NewFeishuServer creates a new Feishu server
func NewFeishuServer(
	feishuClient *feishu.Client,
	expireUC *usecase.ExpireUsecase,
	sweeper *service.ReactionSweeper,
) *FeishuServer {
	return &FeishuServer{
		feishuClient:  feishuClient,
		expireUC:      expireUC,
		sweeper:       sweeper,
		seenMsgs:      newSeenCache(5 * time.Minute),
		seenReactions: newSeenCache(5 * time.Minute),
	}
}

// Start starts the sweeper and the Feishu client, blocking until ctx is done
func (s *FeishuServer) Start(ctx context.Context) error {
	s.ctx = ctx

	s.sweeper.Start(ctx)
	defer s.sweeper.Stop()

	s.feishuClient.OnMessage(s.handleMessage)
	s.feishuClient.OnReaction(s.handleReaction)
	return s.feishuClient.Start(ctx)
}

// handleMessage handles Feishu messages
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	cmd, ok := ParseFeishuCommand(msg.Content)
	if !ok {
		return
	}

	// Message deduplication: check if already processed
	if s.seenMsgs.checkAndMark(msg.MsgID, time.Now()) {
		fmt.Printf("[Server] Duplicate message ignored: %s\n", msg.MsgID)
		return
	}

	fmt.Printf("[Server] /%s in %s (chatType=%s)\n", cmd.Name, msg.ChatID, msg.ChatType)

	inv := InvocationFromFeishu(msg)
	resp := data.NewFeishuResponder(s.feishuClient, msg.ChatID, msg.MsgID, inv.Member.UserID)

	switch cmd.Name {
	case CommandExpire:
		s.expireUC.Expire(s.ctx, resp, ExpireRequestFromFeishu(msg, cmd))
	case CommandTestDelete:
		s.expireUC.TestDelete(s.ctx, resp, inv)
	case CommandHelp:
		if err := resp.Reply(s.ctx, s.expireUC.Help()); err != nil {
			fmt.Printf("[Server] Failed to send help: %v\n", err)
		}
	}
}

func (s *FeishuServer) handleReaction(r *feishu.Reaction) {
	if r.OperatorType == "app" {
		return
	}
	if s.seenReactions.checkAndMark(reactionKey(r), time.Now()) {
		fmt.Printf("[Server] Duplicate reaction ignored on %s\n", r.MessageID)
		return
	}
	s.expireUC.OnReaction(r.MessageID, r.EmojiType)
}

// reactionKey identifies a reaction event, falling back to its content
// when the event carries no id
func reactionKey(r *feishu.Reaction) string {
	if r.EventID != "" {
		return r.EventID
	}
	return r.MessageID + "|" + r.OperatorID + "|" + r.EmojiType
}

// InvocationFromFeishu extracts the chat and sender of a message
func InvocationFromFeishu(msg *feishu.Message) domain.Invocation {
	inv := domain.Invocation{
		ChannelID: msg.ChatID,
		MessageID: msg.MsgID,
	}
	if msg.Sender != nil && msg.Sender.SenderID != "" {
		inv.Member = domain.Member{
			UserID:  msg.Sender.SenderID,
			Mention: feishu.FormatMention(msg.Sender.SenderID),
		}
	}
	return inv
}

// ExpireRequestFromFeishu builds an expire request from a parsed command.
// The first image in the message is the attachment.
func ExpireRequestFromFeishu(msg *feishu.Message, cmd *FeishuCommand) *domain.ExpireRequest {
	var att domain.Attachment
	if len(msg.ImageKeys) > 0 {
		att = domain.Attachment{
			ResourceKey: msg.ImageKeys[0],
			MessageID:   msg.MsgID,
			Filename:    msg.ImageKeys[0] + ".png",
			ContentType: "image/png",
		}
	}

	req := domain.NewExpireRequest(InvocationFromFeishu(msg), att, cmd.Delay)
	req.ShowName = !cmd.HideName
	req.Spoiler = cmd.Spoiler
	req.Caption = cmd.Caption
	return req
}
