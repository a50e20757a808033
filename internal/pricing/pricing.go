package pricing

import (
	"fmt"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
)

// Quote is the result of resolving a selection against the catalog. Items
// holds the surviving snapshots whose per-item prices get frozen on the
// order; GroupPrices maps each distinct billing key to the single price
// charged for it.
type Quote struct {
	Total       int64
	GroupPrices map[string]int64
	Items       []models.Item
}

// SingleKey builds the synthetic billing key for an ungrouped item.
func SingleKey(itemID int64) string {
	return fmt.Sprintf("single:%d", itemID)
}

// BillingKey returns the key an item is charged under.
func BillingKey(item models.Item) string {
	if item.GroupKey != "" {
		return item.GroupKey
	}
	return SingleKey(item.ID)
}

// Resolve prices a selection. Items with no delivery payload or a
// non-positive price are dropped. Items sharing a group key are charged once
// at the price of the first item seen for that group; every other item is
// charged individually. An empty surviving set or a non-positive total is
// rejected.
func Resolve(items []models.Item) (*Quote, error) {
	quote := &Quote{GroupPrices: make(map[string]int64)}

	for _, item := range items {
		if item.FileID == "" || item.Price <= 0 {
			continue
		}

		key := BillingKey(item)
		if _, ok := quote.GroupPrices[key]; !ok {
			quote.GroupPrices[key] = item.Price
			quote.Total += item.Price
		}
		quote.Items = append(quote.Items, item)
	}

	if len(quote.Items) == 0 || quote.Total <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selection has nothing billable")
	}

	return quote, nil
}
