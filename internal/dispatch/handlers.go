package dispatch

import (
	"context"
	"strconv"
	"time"

	"github.com/aslamtv/storebot-backend/internal/cart"
	"github.com/aslamtv/storebot-backend/internal/catalog"
	"github.com/aslamtv/storebot-backend/internal/fulfillment"
	"github.com/aslamtv/storebot-backend/internal/orders"
	"github.com/aslamtv/storebot-backend/internal/referrals"
	"github.com/aslamtv/storebot-backend/internal/users"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	"github.com/aslamtv/storebot-backend/pkg/enums"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/pagination"
)

// Services bundles everything the buyer-facing event surface can reach.
type Services struct {
	Users       users.Service
	Catalog     catalog.Service
	Cart        cart.Service
	Orders      orders.Service
	Fulfillment fulfillment.Service
	Referrals   referrals.Service
}

// RegisterHandlers binds every buyer event kind to its service call.
func RegisterHandlers(d *Dispatcher, svcs Services) error {
	bindings := map[enums.EventKind]Handler{
		enums.EventStart:          start(svcs),
		enums.EventBuyItem:        buyItem(svcs),
		enums.EventBuyGroup:       buyGroup(svcs),
		enums.EventCartAdd:        cartAdd(svcs),
		enums.EventCartRemove:     cartRemove(svcs),
		enums.EventCartView:       cartView(svcs),
		enums.EventSearch:         search(svcs),
		enums.EventCheckout:       checkout(svcs),
		enums.EventCancelOrder:    cancelOrder(svcs),
		enums.EventDeliver:        deliver(svcs),
		enums.EventResendAll:      resendAll(svcs),
		enums.EventResendOne:      resendOne(svcs),
		enums.EventOrderHistory:   orderHistory(svcs),
		enums.EventRecordFeedback: recordFeedback(svcs),
		enums.EventReferralStart:  referralStart(svcs),
	}
	for kind, handler := range bindings {
		if err := d.Register(kind, handler); err != nil {
			return err
		}
	}
	return nil
}

// start remembers the visiting buyer so later operator messages can show a
// handle instead of a bare id.
func start(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		return svcs.Users.Record(ctx, event.UserID, event.Args["username"], event.Args["first_name"])
	}
}

func buyItem(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		itemID, err := argInt64(event, "item_id")
		if err != nil {
			return err
		}
		if err := rejectOwned(ctx, svcs, event.UserID, []int64{itemID}); err != nil {
			return err
		}
		_, err = svcs.Orders.CreateOrReuse(ctx, event.UserID, []int64{itemID})
		return err
	}
}

func buyGroup(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		groupKey := event.Args["group_key"]
		items, err := svcs.Catalog.Group(ctx, groupKey)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		if err := rejectOwned(ctx, svcs, event.UserID, ids); err != nil {
			return err
		}
		_, err = svcs.Orders.CreateOrReuse(ctx, event.UserID, ids)
		return err
	}
}

// rejectOwned refuses a buy intent when any selected item was already
// delivered to the user.
func rejectOwned(ctx context.Context, svcs Services, userID int64, itemIDs []int64) error {
	owned, err := svcs.Fulfillment.Owned(ctx, userID, itemIDs)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "already owned")
	}
	return nil
}

func cartAdd(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		itemID, err := argInt64(event, "item_id")
		if err != nil {
			return err
		}
		return svcs.Cart.Add(ctx, event.UserID, itemID)
	}
}

func cartRemove(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		itemID, err := argInt64(event, "item_id")
		if err != nil {
			return err
		}
		return svcs.Cart.Remove(ctx, event.UserID, itemID)
	}
}

func cartView(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		_, err := svcs.Cart.View(ctx, event.UserID)
		return err
	}
}

func search(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		_, err := svcs.Catalog.Search(ctx, event.Args["query"])
		return err
	}
}

func checkout(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		_, err := svcs.Cart.Checkout(ctx, event.UserID)
		return err
	}
}

func cancelOrder(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		orderID := event.Args["order_id"]
		return svcs.Orders.Cancel(ctx, orderID, event.UserID)
	}
}

func deliver(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		orderID := event.Args["order_id"]
		_, err := svcs.Fulfillment.Deliver(ctx, orderID, event.UserID)
		return err
	}
}

func resendAll(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		scope := fulfillment.ResendScope{}
		if days, err := argInt64(event, "days"); err == nil && days > 0 {
			scope.Window = time.Duration(days) * 24 * time.Hour
		}
		_, err := svcs.Fulfillment.Resend(ctx, event.UserID, scope)
		return err
	}
}

func resendOne(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		itemID, err := argInt64(event, "item_id")
		if err != nil {
			return err
		}
		_, err = svcs.Fulfillment.Resend(ctx, event.UserID, fulfillment.ResendScope{ItemID: itemID})
		return err
	}
}

func orderHistory(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		params := pagination.Params{Cursor: event.Args["cursor"]}
		if limit, err := argInt64(event, "limit"); err == nil {
			params.Limit = int(limit)
		}

		var paid *int
		switch event.Args["filter"] {
		case "paid":
			p := models.OrderPaid
			paid = &p
		case "unpaid":
			p := models.OrderUnpaid
			paid = &p
		case "":
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "filter must be paid or unpaid")
		}

		_, err := svcs.Orders.History(ctx, event.UserID, paid, params)
		return err
	}
}

func recordFeedback(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		orderID := event.Args["order_id"]
		mood := enums.FeedbackMood(event.Args["mood"])
		return svcs.Fulfillment.RecordFeedback(ctx, orderID, event.UserID, mood, event.Args["comment"])
	}
}

func referralStart(svcs Services) Handler {
	return func(ctx context.Context, event Event) error {
		referrerID, err := argInt64(event, "referrer_id")
		if err != nil {
			return err
		}
		return svcs.Referrals.RecordReferral(ctx, referrerID, event.UserID)
	}
}

func argInt64(event Event, key string) (int64, error) {
	raw, ok := event.Args[key]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be an integer")
	}
	return value, nil
}
