package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/usecase"
	"github.com/peekabot/peekabot/internal/infra/feishu"
)

func TestExpireRequestFromFeishu(t *testing.T) {
	msg := &feishu.Message{
		ChatID:    "oc_1",
		MsgID:     "om_1",
		ImageKeys: []string{"img_v2_a", "img_v2_b"},
		Sender:    &feishu.Sender{SenderID: "ou_alice"},
	}
	cmd := &FeishuCommand{Name: CommandExpire, Delay: "10 minutes", HideName: true, Caption: "hi"}

	req := ExpireRequestFromFeishu(msg, cmd)
	require.Equal(t, "oc_1", req.Invocation.ChannelID)
	require.Equal(t, "om_1", req.Invocation.MessageID)
	require.Equal(t, "ou_alice", req.Invocation.Member.UserID)
	require.Equal(t, `<at user_id="ou_alice"></at>`, req.Invocation.Member.FormatMention())
	require.Equal(t, "img_v2_a", req.Attachment.ResourceKey)
	require.Equal(t, "om_1", req.Attachment.MessageID)
	require.Equal(t, "10 minutes", req.DelayText)
	require.False(t, req.ShowName)
	require.False(t, req.Spoiler)
	require.Equal(t, "hi", req.Caption)
}

func TestExpireRequestFromFeishu_NoImage(t *testing.T) {
	msg := &feishu.Message{ChatID: "oc_1", MsgID: "om_1"}
	req := ExpireRequestFromFeishu(msg, &FeishuCommand{Name: CommandExpire, Delay: "1 hour"})
	require.True(t, req.Attachment.Empty())
	require.True(t, req.ShowName)
	require.Empty(t, req.Invocation.Member.UserID)
}

func TestFeishuServer_RedeliveredReactionCountedOnce(t *testing.T) {
	tracker := usecase.NewReactionTracker()
	scheduler := usecase.NewExpiryScheduler()
	defer scheduler.Stop()
	uc := usecase.NewExpireUsecase(nil, nil, tracker, scheduler, usecase.DefaultExpireConfig())
	s := NewFeishuServer(nil, uc, nil)

	tracker.Register("om_img", time.Now())

	first := &feishu.Reaction{EventID: "ev_1", MessageID: "om_img", EmojiType: "THUMBSUP", OperatorID: "ou_a", OperatorType: "user"}
	s.handleReaction(first)
	s.handleReaction(first)
	s.handleReaction(&feishu.Reaction{EventID: "ev_2", MessageID: "om_img", EmojiType: "THUMBSUP", OperatorID: "ou_b", OperatorType: "user"})
	s.handleReaction(&feishu.Reaction{EventID: "ev_3", MessageID: "om_img", EmojiType: "THUMBSUP", OperatorType: "app"})

	require.Equal(t, domain.ReactionTally{"THUMBSUP": 2}, tracker.Consume("om_img"))
}

func TestReactionKey(t *testing.T) {
	require.Equal(t, "ev_1", reactionKey(&feishu.Reaction{EventID: "ev_1", MessageID: "om"}))
	require.Equal(t, "om|ou_a|SMILE", reactionKey(&feishu.Reaction{MessageID: "om", OperatorID: "ou_a", EmojiType: "SMILE"}))
}
