package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/repo"
)

// ExpireConfig contains upload-and-expire settings
type ExpireConfig struct {
	MaxDelaySeconds int64
	LivenessDelay   time.Duration
	ReactionSummary bool // Track reactions and list them when the image is deleted
	Messages        MessageConfig
}

// DefaultExpireConfig returns default settings
func DefaultExpireConfig() ExpireConfig {
	return ExpireConfig{
		MaxDelaySeconds: domain.MaxDelaySeconds,
		LivenessDelay:   10 * time.Second,
		ReactionSummary: true,
		Messages:        DefaultMessageConfig,
	}
}

// ExpireUsecase handles the bot's commands
type ExpireUsecase struct {
	messageRepo repo.MessageRepo
	historyRepo repo.HistoryRepo // Optional
	tracker     *ReactionTracker
	scheduler   *ExpiryScheduler
	config      ExpireConfig
	now         func() time.Time
}

// NewExpireUsecase creates a new expire usecase
func NewExpireUsecase(
	messageRepo repo.MessageRepo,
	historyRepo repo.HistoryRepo,
	tracker *ReactionTracker,
	scheduler *ExpiryScheduler,
	config ExpireConfig,
) *ExpireUsecase {
	return &ExpireUsecase{
		messageRepo: messageRepo,
		historyRepo: historyRepo,
		tracker:     tracker,
		scheduler:   scheduler,
		config:      config,
		now:         time.Now,
	}
}

// Expire runs the upload-and-expire command. Every outcome is reported to
// the invoker through resp.
func (uc *ExpireUsecase) Expire(ctx context.Context, resp repo.Responder, req *domain.ExpireRequest) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Expire] Panic: %v\n", r)
			uc.reply(ctx, resp, uc.config.Messages.Unexpected)
		}
	}()

	if err := resp.Acknowledge(ctx); err != nil {
		fmt.Printf("[Expire] Failed to acknowledge: %v\n", err)
	}

	if err := uc.expire(ctx, resp, req); err != nil {
		uc.reply(ctx, resp, uc.userMessage(err))
	}
}

func (uc *ExpireUsecase) expire(ctx context.Context, resp repo.Responder, req *domain.ExpireRequest) error {
	seconds, err := domain.ParseDelay(req.DelayText)
	if err != nil {
		return err
	}
	if err := domain.CheckDelay(seconds, uc.config.MaxDelaySeconds); err != nil {
		return err
	}

	if req.Attachment.Empty() {
		return domain.ErrMissingAttachment
	}

	data, err := uc.messageRepo.FetchAttachment(ctx, &req.Attachment)
	if err != nil {
		return fmt.Errorf("fetch attachment: %w", err)
	}

	file := &domain.File{
		Name:        req.UploadFileName(),
		ContentType: req.Attachment.ContentType,
		Data:        data,
	}

	posted, err := uc.postAndRegister(ctx, req.Invocation.ChannelID, req.DisplayText(), file)
	if err != nil {
		return fmt.Errorf("post image: %w", err)
	}

	// Scheduled before confirming so a failed reply cannot leave the image up forever
	uc.scheduler.Schedule(posted.ID, time.Duration(seconds)*time.Second, func(ctx context.Context, task *ExpiryTask) {
		uc.expireMessage(ctx, req, posted, seconds, task)
	})

	// The image is already up; a failed confirmation must not invite a retry
	delayText := strings.TrimSpace(req.DelayText)
	uc.reply(ctx, resp, fmt.Sprintf(uc.config.Messages.Scheduled, delayText))

	fmt.Printf("[Expire] Image %s in %s from %s expires in %s\n",
		posted.ID, posted.ChannelID, req.Invocation.Member.UserID, delayText)
	return nil
}

// postAndRegister posts the file and starts tracking it. A record is only
// created for a message that was actually posted.
func (uc *ExpireUsecase) postAndRegister(ctx context.Context, channelID, text string, file *domain.File) (*domain.PostedMessage, error) {
	messageID, err := uc.messageRepo.SendFile(ctx, channelID, text, file)
	if err != nil {
		return nil, err
	}

	posted := &domain.PostedMessage{
		ID:        messageID,
		ChannelID: channelID,
		CreatedAt: uc.now(),
	}
	if uc.config.ReactionSummary {
		uc.tracker.Register(posted.ID, posted.CreatedAt)
	}
	return posted, nil
}

// expireMessage deletes the image and announces it. The announcement is
// posted even if the delete fails.
func (uc *ExpireUsecase) expireMessage(ctx context.Context, req *domain.ExpireRequest, posted *domain.PostedMessage, seconds int64, task *ExpiryTask) {
	deleted := true
	if err := uc.messageRepo.DeleteMessage(ctx, posted.ChannelID, posted.ID); err != nil {
		deleted = false
		fmt.Printf("[Expire] Failed to delete %s (already gone?): %v\n", posted.ID, err)
	}

	tally := uc.tracker.Consume(posted.ID)

	text := uc.Announcement(req, tally)
	if _, err := uc.messageRepo.SendText(ctx, posted.ChannelID, text); err != nil {
		fmt.Printf("[Expire] Failed to announce deletion of %s: %v\n", posted.ID, err)
	}

	if uc.historyRepo == nil {
		return
	}

	entry := &domain.HistoryEntry{
		TaskID:       task.ID,
		ChannelID:    posted.ChannelID,
		MessageID:    posted.ID,
		UserID:       req.Invocation.Member.UserID,
		DelaySeconds: seconds,
		DelayText:    strings.TrimSpace(req.DelayText),
		Deleted:      deleted,
		Reactions:    tally,
		ScheduledAt:  task.ScheduledAt,
		FiredAt:      uc.now(),
	}
	if err := uc.historyRepo.Append(ctx, entry); err != nil {
		fmt.Printf("[Expire] Failed to record history for %s: %v\n", posted.ID, err)
	}
}

// Announcement builds the deletion notice for a request
func (uc *ExpireUsecase) Announcement(req *domain.ExpireRequest, tally domain.ReactionTally) string {
	msgs := uc.config.Messages
	delayText := strings.TrimSpace(req.DelayText)

	var text string
	if req.ShowName {
		text = fmt.Sprintf(msgs.AnnounceWithName, req.Invocation.Member.FormatMention(), delayText)
	} else {
		text = fmt.Sprintf(msgs.AnnounceNoName, delayText)
	}

	if uc.config.ReactionSummary && len(tally) > 0 {
		text += fmt.Sprintf(msgs.ReactionSummary, tally.Format())
	}
	return text
}

// OnReaction counts a reaction added to a message.
// Reactions on messages this bot is not tracking are ignored.
func (uc *ExpireUsecase) OnReaction(messageID, kind string) {
	if !uc.config.ReactionSummary || kind == "" {
		return
	}
	uc.tracker.RecordReaction(messageID, kind)
}

// TestDelete posts a message and deletes it after the liveness delay
func (uc *ExpireUsecase) TestDelete(ctx context.Context, resp repo.Responder, inv domain.Invocation) {
	msgs := uc.config.Messages

	if err := resp.Acknowledge(ctx); err != nil {
		fmt.Printf("[Expire] Failed to acknowledge testdelete: %v\n", err)
	}

	messageID, err := uc.messageRepo.SendText(ctx, inv.ChannelID, msgs.TestMessage)
	if err != nil {
		fmt.Printf("[Expire] testdelete send failed: %v\n", err)
		uc.reply(ctx, resp, msgs.TestFailed)
		return
	}

	uc.scheduler.Schedule(messageID, uc.config.LivenessDelay, func(ctx context.Context, task *ExpiryTask) {
		if err := uc.messageRepo.DeleteMessage(ctx, inv.ChannelID, messageID); err != nil {
			fmt.Printf("[Expire] testdelete delete failed: %v\n", err)
			uc.reply(ctx, resp, msgs.TestFailed)
		}
	})

	uc.reply(ctx, resp, msgs.TestSent)
}

// Help returns the usage text
func (uc *ExpireUsecase) Help() string {
	msgs := uc.config.Messages
	if uc.config.ReactionSummary {
		return msgs.Help + msgs.HelpReactionsOn
	}
	return msgs.Help + msgs.HelpReactionsOff
}

func (uc *ExpireUsecase) userMessage(err error) string {
	msgs := uc.config.Messages
	switch {
	case errors.Is(err, domain.ErrInvalidFormat):
		return msgs.InvalidFormat
	case errors.Is(err, domain.ErrDelayTooLong):
		return msgs.DelayTooLong
	case errors.Is(err, domain.ErrMissingAttachment):
		return msgs.MissingImage
	case errors.Is(err, domain.ErrDownloadFailure):
		fmt.Printf("[Expire] %v\n", err)
		return msgs.DownloadFailed
	default:
		fmt.Printf("[Expire] Unexpected error: %v\n", err)
		return msgs.Unexpected
	}
}

func (uc *ExpireUsecase) reply(ctx context.Context, resp repo.Responder, text string) {
	if err := resp.Reply(ctx, text); err != nil {
		fmt.Printf("[Expire] Failed to reply: %v\n", err)
	}
}
