package cart

import (
	"context"
	"fmt"

	"github.com/aslamtv/storebot-backend/internal/catalog"
	"github.com/aslamtv/storebot-backend/internal/orders"
	"github.com/aslamtv/storebot-backend/internal/pricing"
	"github.com/aslamtv/storebot-backend/internal/referrals"
	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/aslamtv/storebot-backend/pkg/db"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/flutterwave"
	"github.com/aslamtv/storebot-backend/pkg/metrics"
	"gorm.io/gorm"
)

// paymentLinker issues a hosted checkout link for the remaining due.
type paymentLinker interface {
	CreatePaymentLink(ctx context.Context, req flutterwave.PaymentLinkRequest) (string, error)
}

// ledgerWriter adjusts the order ledger as credits are consumed. WithTx
// scopes the amount update to the credit-consumption transaction.
type ledgerWriter interface {
	WithTx(tx *gorm.DB) orders.Repository
	MarkPaid(ctx context.Context, orderID string) (bool, error)
	UpdateAmount(ctx context.Context, orderID string, amount int64) error
}

type service struct {
	repo    Repository
	catalog catalog.Service
	orders  orders.Service
	credits referrals.Service
	linker  paymentLinker
	ledger  ledgerWriter
	metrics *metrics.CommerceMetrics
	cfg     config.FlutterwaveConfig
}

// NewService builds the cart service. The payment linker is optional for
// deployments that only take out-of-band payment.
func NewService(repo Repository, catalogSvc catalog.Service, ordersSvc orders.Service, credits referrals.Service, linker paymentLinker, ledger ledgerWriter, m *metrics.CommerceMetrics, cfg config.FlutterwaveConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if credits == nil {
		return nil, fmt.Errorf("referrals service required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger writer required")
	}
	return &service{
		repo:    repo,
		catalog: catalogSvc,
		orders:  ordersSvc,
		credits: credits,
		linker:  linker,
		ledger:  ledger,
		metrics: m,
		cfg:     cfg,
	}, nil
}

func (s *service) Add(ctx context.Context, userID, itemID int64) error {
	if _, err := s.catalog.Item(ctx, itemID); err != nil {
		return err
	}

	err := s.repo.Add(ctx, &models.CartEntry{UserID: userID, ItemID: itemID})
	if err != nil {
		// already in the cart
		if db.IsUniqueViolation(err, "idx_cart_user_item") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart entry")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, itemID int64) error {
	if err := s.repo.Remove(ctx, userID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart entry")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// View prices the cart live against the catalog.
func (s *service) View(ctx context.Context, userID int64) (*View, error) {
	itemIDs, err := s.entryItemIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return &View{}, nil
	}

	items, err := s.catalog.Items(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.Resolve(items)
	if err != nil {
		return nil, err
	}
	return &View{Items: quote.Items, Total: quote.Total}, nil
}

// Checkout converts the cart into an order, applies referral credits to the
// total, and clears the cart. When credits cover everything the order is
// paid immediately; otherwise a payment link for the remainder is issued.
func (s *service) Checkout(ctx context.Context, userID int64) (*CheckoutResult, error) {
	itemIDs, err := s.entryItemIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order, err := s.orders.CreateOrReuse(ctx, userID, itemIDs)
	if err != nil {
		return nil, err
	}

	// the ledger tracks what is still owed, so the gateway callback can
	// compare against it directly; consuming credits and lowering the owed
	// amount commit or roll back together
	application, err := s.credits.ApplyCredits(ctx, userID, order.Amount, func(tx *gorm.DB, app *referrals.Application) error {
		if app.Applied == 0 {
			return nil
		}
		if err := s.ledger.WithTx(tx).UpdateAmount(ctx, order.ID, app.RemainingDue); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply credits to order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{
		Order:          order,
		CreditsApplied: application.Applied,
		AmountDue:      application.RemainingDue,
	}

	if application.Applied > 0 {
		order.Amount = application.RemainingDue
		for range application.ConsumedIDs {
			s.metrics.IncCreditsApplied()
		}
	}

	if application.RemainingDue == 0 {
		if _, err := s.ledger.MarkPaid(ctx, order.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark credit-covered order paid")
		}
		order.Paid = models.OrderPaid
		result.PaidInFull = true
	} else if s.linker != nil {
		req := flutterwave.PaymentLinkRequest{
			TxRef:       order.ID,
			Amount:      application.RemainingDue,
			Currency:    s.cfg.Currency,
			RedirectURL: s.cfg.RedirectURL,
		}
		req.Customer.Email = fmt.Sprintf("tg%d@storebot.local", userID)
		link, err := s.linker.CreatePaymentLink(ctx, req)
		if err != nil {
			return nil, err
		}
		result.PaymentLink = link
	}

	if err := s.repo.Clear(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart after checkout")
	}
	return result, nil
}

func (s *service) entryItemIDs(ctx context.Context, userID int64) ([]int64, error) {
	entries, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart entries")
	}
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ItemID)
	}
	return ids, nil
}
