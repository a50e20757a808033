package referrals

import (
	"context"
	"fmt"

	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/aslamtv/storebot-backend/pkg/db"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo       Repository
	orders     PaidOrderCounter
	membership MembershipChecker
	tx         txRunner
	cfg        config.ReferralsConfig
}

// NewService builds the referral reward service.
func NewService(repo Repository, orders PaidOrderCounter, membership MembershipChecker, tx txRunner, cfg config.ReferralsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("referrals repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("paid order counter required")
	}
	if membership == nil {
		return nil, fmt.Errorf("membership checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, orders: orders, membership: membership, tx: tx, cfg: cfg}, nil
}

// RecordReferral inserts the edge once. Self-referrals and repeats are
// silently absorbed.
func (s *service) RecordReferral(ctx context.Context, referrerID, referredID int64) error {
	if referrerID <= 0 || referredID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "referrer and referred ids required")
	}
	if referrerID == referredID {
		return nil
	}

	if _, err := s.repo.FindEdgeByReferred(ctx, referredID); err == nil {
		return nil
	} else if err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral edge")
	}

	err := s.repo.CreateEdge(ctx, &models.ReferralEdge{
		ReferrerID: referrerID,
		ReferredID: referredID,
	})
	if err != nil {
		// lost a race to another insert for the same referred user
		if db.IsUniqueViolation(err, "idx_referral_referred") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create referral edge")
	}
	return nil
}

// CheckAndGrant awards the referrer one credit when the referred user has
// reached the paid-order quota and still holds channel membership. The grant
// flag makes repeat invocations from duplicate payment callbacks a no-op.
// A nil Grant means nothing was awarded this time.
func (s *service) CheckAndGrant(ctx context.Context, referredID int64) (*Grant, error) {
	edge, err := s.repo.FindEdgeByReferred(ctx, referredID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral edge")
	}
	if edge.RewardGranted {
		return nil, nil
	}

	paidCount, err := s.orders.CountPaidOrders(ctx, referredID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count paid orders")
	}
	if paidCount < int64(s.cfg.PaidOrderQuota) {
		return nil, nil
	}

	member, err := s.membership.IsMember(ctx, referredID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check channel membership")
	}
	if !member {
		return nil, nil
	}

	var grant *Grant
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		won, err := repo.MarkRewardGranted(ctx, edge.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reward granted")
		}
		if !won {
			return nil
		}

		credit := &models.ReferralCredit{
			OwnerID: edge.ReferrerID,
			Amount:  int64(s.cfg.RewardAmount),
		}
		if err := repo.CreateCredit(ctx, credit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create referral credit")
		}
		grant = &Grant{ReferrerID: edge.ReferrerID, Amount: credit.Amount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// ApplyCredits consumes whole credits oldest first until the due amount is
// covered or credits run out. Excess from the last credit is not carried
// forward as change. The hook, when given, runs in the same transaction so
// downstream ledger writes commit or roll back with the consumption.
func (s *service) ApplyCredits(ctx context.Context, userID int64, amountDue int64, hook ApplyHook) (*Application, error) {
	if amountDue < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount due cannot be negative")
	}

	result := &Application{RemainingDue: amountDue}
	if amountDue == 0 {
		return result, nil
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		credits, err := repo.FindUnusedCredits(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unused credits")
		}

		for _, credit := range credits {
			if result.RemainingDue <= 0 {
				break
			}
			result.Applied += credit.Amount
			result.ConsumedIDs = append(result.ConsumedIDs, credit.ID)
			result.RemainingDue -= credit.Amount
		}
		if result.RemainingDue < 0 {
			result.RemainingDue = 0
		}

		if err := repo.MarkCreditsUsed(ctx, result.ConsumedIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark credits used")
		}
		if hook != nil {
			return hook(tx, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
