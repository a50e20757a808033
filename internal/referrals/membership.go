package referrals

import (
	"context"
	"fmt"

	"github.com/aslamtv/storebot-backend/pkg/config"
)

// chatMemberLookup is the Bot API surface the membership check needs.
type chatMemberLookup interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (bool, error)
}

// ChannelMembership answers the reward gate's membership question against
// the configured member chat.
type ChannelMembership struct {
	bot chatMemberLookup
	cfg config.TelegramConfig
}

// NewChannelMembership builds the membership checker.
func NewChannelMembership(bot chatMemberLookup, cfg config.TelegramConfig) (*ChannelMembership, error) {
	if bot == nil {
		return nil, fmt.Errorf("bot client required")
	}
	return &ChannelMembership{bot: bot, cfg: cfg}, nil
}

// IsMember reports whether the user currently belongs to the member chat.
// An unconfigured chat id disables the gate rather than blocking rewards.
func (c *ChannelMembership) IsMember(ctx context.Context, userID int64) (bool, error) {
	if c.cfg.MemberChatID == 0 {
		return true, nil
	}
	return c.bot.GetChatMember(ctx, c.cfg.MemberChatID, userID)
}
