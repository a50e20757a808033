package users

import (
	"context"
	"fmt"

	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"gorm.io/gorm"
)

type service struct {
	repo Repository
}

// NewService builds the buyer roster service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

// Record remembers a buyer and refreshes their name fields on every visit.
func (s *service) Record(ctx context.Context, userID int64, username, firstName string) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	err := s.repo.Upsert(ctx, &models.User{
		ID:        userID,
		Username:  username,
		FirstName: firstName,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record user")
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not known")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
