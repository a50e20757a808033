package notifications

import (
	"context"
	"fmt"

	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
)

// messageSender is the outbound chat surface used for every notification.
type messageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// userReader resolves buyer display names for operator messages.
type userReader interface {
	Get(ctx context.Context, userID int64) (*models.User, error)
}

// Service delivers buyer and operator messages. All notifications are
// best-effort; callers decide whether failure matters.
type Service struct {
	sender messageSender
	users  userReader
	cfg    config.TelegramConfig
}

// NewService builds the notification sender. The user reader is optional;
// without it operator messages fall back to the numeric buyer id.
func NewService(sender messageSender, users userReader, cfg config.TelegramConfig) (*Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("message sender required")
	}
	return &Service{sender: sender, users: users, cfg: cfg}, nil
}

// NotifyBuyerPaid tells the buyer their payment landed and how to pull
// delivery.
func (s *Service) NotifyBuyerPaid(ctx context.Context, userID int64, order *models.Order) error {
	text := fmt.Sprintf(
		"Payment received for order %s. Use /delivery %s to collect your files.",
		shortOrderID(order.ID), order.ID,
	)
	if err := s.sender.SendMessage(ctx, userID, text); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify buyer")
	}
	return nil
}

// NotifyOpsPaid posts an order summary to the operations channel.
func (s *Service) NotifyOpsPaid(ctx context.Context, order *models.Order) error {
	if s.cfg.OpsChannelID == 0 {
		return nil
	}
	text := fmt.Sprintf(
		"Paid order %s: %s, amount %d",
		shortOrderID(order.ID), s.buyerLabel(ctx, order.UserID), order.Amount,
	)
	if err := s.sender.SendMessage(ctx, s.cfg.OpsChannelID, text); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify ops channel")
	}
	return nil
}

// PromptFeedback asks the buyer to react to a freshly delivered order.
func (s *Service) PromptFeedback(ctx context.Context, userID int64, orderID string) error {
	text := fmt.Sprintf(
		"Your order %s is delivered. How was it? Reply /feedback %s happy|neutral|sad",
		shortOrderID(orderID), orderID,
	)
	if err := s.sender.SendMessage(ctx, userID, text); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prompt feedback")
	}
	return nil
}

// NotifyReferralReward congratulates a referrer on a granted credit.
func (s *Service) NotifyReferralReward(ctx context.Context, referrerID int64, amount int64) error {
	text := fmt.Sprintf("You earned a %d credit from a referral. It applies automatically at checkout.", amount)
	if err := s.sender.SendMessage(ctx, referrerID, text); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify referrer")
	}
	return nil
}

func (s *Service) buyerLabel(ctx context.Context, userID int64) string {
	if s.users != nil {
		if user, err := s.users.Get(ctx, userID); err == nil && user.Username != "" {
			return "@" + user.Username
		}
	}
	return fmt.Sprintf("user %d", userID)
}

func shortOrderID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
