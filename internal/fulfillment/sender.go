package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/aslamtv/storebot-backend/pkg/enums"
)

// mediaSender is the Bot API slice delivery needs.
type mediaSender interface {
	SendVideo(ctx context.Context, chatID int64, fileID, caption string) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
}

// TelegramSender adapts the Bot API to the delivery loop and paces sends so
// bulk orders do not trip the channel rate limit immediately.
type TelegramSender struct {
	bot   mediaSender
	delay time.Duration
}

// NewTelegramSender builds the sender with the configured pacing delay.
func NewTelegramSender(bot mediaSender, cfg config.TelegramConfig) (*TelegramSender, error) {
	if bot == nil {
		return nil, fmt.Errorf("bot client required")
	}
	return &TelegramSender{
		bot:   bot,
		delay: time.Duration(cfg.SendDelayMS) * time.Millisecond,
	}, nil
}

// SendPayload pushes one payload by its stored kind.
func (s *TelegramSender) SendPayload(ctx context.Context, chatID int64, payloadRef string, kind enums.FileKind, caption string) error {
	var err error
	switch kind {
	case enums.FileDocument:
		err = s.bot.SendDocument(ctx, chatID, payloadRef, caption)
	default:
		err = s.bot.SendVideo(ctx, chatID, payloadRef, caption)
	}
	if err != nil {
		return err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
