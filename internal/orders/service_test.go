package orders

import (
	"context"
	"testing"

	"github.com/aslamtv/storebot-backend/internal/catalog"
	"github.com/aslamtv/storebot-backend/pkg/db/models"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	existing      *models.Order
	createdOrder  *models.Order
	createdItems  []models.OrderItem
	orderByID     *models.Order
	orderByIDErr  error
	deletedOrder  string
	listRows      []models.Order
	paidCount     int64
	markPaidWon   bool
	markPaidCalls int
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.createdOrder = order
	return order, nil
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	s.createdItems = items
	return nil
}

func (s *stubOrdersRepo) FindOrderByID(ctx context.Context, id string) (*models.Order, error) {
	if s.orderByIDErr != nil {
		return nil, s.orderByIDErr
	}
	if s.orderByID == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.orderByID, nil
}

func (s *stubOrdersRepo) FindOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	return s.createdItems, nil
}

func (s *stubOrdersRepo) FindUnpaidOrderWithExactItems(ctx context.Context, userID int64, itemIDs []int64) (*models.Order, error) {
	if s.existing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.existing, nil
}

func (s *stubOrdersRepo) DeleteOrder(ctx context.Context, orderID string) error {
	s.deletedOrder = orderID
	return nil
}

func (s *stubOrdersRepo) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	s.markPaidCalls++
	return s.markPaidWon, nil
}

func (s *stubOrdersRepo) UpdateAmount(ctx context.Context, orderID string, amount int64) error {
	return nil
}

func (s *stubOrdersRepo) CountPaidOrders(ctx context.Context, userID int64) (int64, error) {
	return s.paidCount, nil
}

func (s *stubOrdersRepo) ListOrders(ctx context.Context, userID int64, paid *int, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	if len(s.listRows) > limit {
		return s.listRows[:limit], nil
	}
	return s.listRows, nil
}

type stubCatalogRepo struct {
	items []models.Item
}

func (s *stubCatalogRepo) WithTx(tx *gorm.DB) catalog.Repository { return s }

func (s *stubCatalogRepo) FindByID(ctx context.Context, id int64) (*models.Item, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) FindByIDs(ctx context.Context, ids []int64) ([]models.Item, error) {
	return s.items, nil
}

func (s *stubCatalogRepo) FindByGroupKey(ctx context.Context, groupKey string) ([]models.Item, error) {
	return nil, nil
}

func (s *stubCatalogRepo) SearchByTitle(ctx context.Context, query string, limit int) ([]models.Item, error) {
	return nil, nil
}

func TestCreateOrReuseReturnsExistingOrder(t *testing.T) {
	existing := &models.Order{ID: "ord-1", UserID: 42, Amount: 800}
	repo := &stubOrdersRepo{existing: existing}
	svc, err := NewService(repo, &stubCatalogRepo{}, stubTxRunner{})
	require.NoError(t, err)

	order, err := svc.CreateOrReuse(context.Background(), 42, []int64{5, 7})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Nil(t, repo.createdOrder)
}

func TestCreateOrReuseCreatesWithGroupPricing(t *testing.T) {
	repo := &stubOrdersRepo{}
	cat := &stubCatalogRepo{items: []models.Item{
		{ID: 1, Price: 500, GroupKey: "G", FileID: "f1"},
		{ID: 2, Price: 500, GroupKey: "G", FileID: "f2"},
		{ID: 3, Price: 300, FileID: "f3"},
	}}
	svc, err := NewService(repo, cat, stubTxRunner{})
	require.NoError(t, err)

	order, err := svc.CreateOrReuse(context.Background(), 42, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(800), order.Amount)
	assert.NotEmpty(t, order.ID)
	require.Len(t, repo.createdItems, 3)
	assert.Equal(t, "f1", repo.createdItems[0].PayloadRef)
	assert.Equal(t, int64(500), repo.createdItems[0].Price)
}

func TestCreateOrReuseRejectsEmptySelection(t *testing.T) {
	svc, err := NewService(&stubOrdersRepo{}, &stubCatalogRepo{}, stubTxRunner{})
	require.NoError(t, err)

	_, err = svc.CreateOrReuse(context.Background(), 42, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrReuseMissingItem(t *testing.T) {
	cat := &stubCatalogRepo{items: []models.Item{{ID: 1, Price: 500, FileID: "f1"}}}
	svc, err := NewService(&stubOrdersRepo{}, cat, stubTxRunner{})
	require.NoError(t, err)

	_, err = svc.CreateOrReuse(context.Background(), 42, []int64{1, 2})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCancelRequiresOwnership(t *testing.T) {
	repo := &stubOrdersRepo{orderByID: &models.Order{ID: "ord-1", UserID: 99}}
	svc, err := NewService(repo, &stubCatalogRepo{}, stubTxRunner{})
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), "ord-1", 42)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
	assert.Empty(t, repo.deletedOrder)
}

func TestCancelRejectsPaidOrder(t *testing.T) {
	repo := &stubOrdersRepo{orderByID: &models.Order{ID: "ord-1", UserID: 42, Paid: models.OrderPaid}}
	svc, err := NewService(repo, &stubCatalogRepo{}, stubTxRunner{})
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), "ord-1", 42)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestCancelDeletesUnpaidOwnedOrder(t *testing.T) {
	repo := &stubOrdersRepo{orderByID: &models.Order{ID: "ord-1", UserID: 42, Paid: models.OrderUnpaid}}
	svc, err := NewService(repo, &stubCatalogRepo{}, stubTxRunner{})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), "ord-1", 42))
	assert.Equal(t, "ord-1", repo.deletedOrder)
}
