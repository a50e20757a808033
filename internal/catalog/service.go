package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"gorm.io/gorm"
)

const searchResultLimit = 20

type service struct {
	repo Repository
}

// NewService builds the catalog read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Item(ctx context.Context, id int64) (*models.Item, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) Items(ctx context.Context, ids []int64) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ids required")
	}
	items, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
	}
	if len(items) != len(dedupe(ids)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more items not found")
	}
	return items, nil
}

func (s *service) Group(ctx context.Context, groupKey string) ([]models.Item, error) {
	if strings.TrimSpace(groupKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group key required")
	}
	items, err := s.repo.FindByGroupKey(ctx, groupKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group items")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
	}
	return items, nil
}

func (s *service) Search(ctx context.Context, query string) ([]models.Item, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query required")
	}
	items, err := s.repo.SearchByTitle(ctx, trimmed, searchResultLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search items")
	}
	return items, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
