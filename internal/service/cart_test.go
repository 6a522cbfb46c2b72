package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

func emptyCart(userID uuid.UUID) *models.Cart {
	return &models.Cart{ID: uuid.New(), UserID: userID}
}

func TestAddCartItem_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	product := &models.Product{ID: uuid.New(), Slug: "ceramic-mug", PriceCents: 1299, InventoryCount: 5}
	cart := emptyCart(userID)

	st.EXPECT().ProductBySlug(gomock.Any(), "ceramic-mug").Return(product, nil)
	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(cart, nil)
	st.EXPECT().AddCartItem(gomock.Any(), cart.ID, product.ID, int64(2)).Return(nil)
	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(&models.Cart{
		ID:     cart.ID,
		UserID: userID,
		Items: []models.CartItem{
			{ID: uuid.New(), CartID: cart.ID, ProductID: product.ID, Quantity: 2, Product: product},
		},
	}, nil)

	got, err := svc.AddCartItem(ctx, userID, "ceramic-mug", 2)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.EqualValues(t, 2598, got.TotalCents())
}

func TestAddCartItem_InvalidQuantity(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.AddCartItem(context.Background(), uuid.New(), "ceramic-mug", 0)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddCartItem_ProductNotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().ProductBySlug(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	_, err := svc.AddCartItem(context.Background(), uuid.New(), "missing", 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddCartItem_InsufficientStock_CountsExisting(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	product := &models.Product{ID: uuid.New(), Slug: "ceramic-mug", InventoryCount: 3}
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: product.ID, Quantity: 2, Product: product},
		},
	}

	st.EXPECT().ProductBySlug(gomock.Any(), "ceramic-mug").Return(product, nil)
	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(cart, nil)

	// 2 в корзине + 2 запрошено > 3 на складе.
	_, err := svc.AddCartItem(context.Background(), userID, "ceramic-mug", 2)
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestUpdateCartItem_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	product := &models.Product{ID: uuid.New(), InventoryCount: 10, PriceCents: 500}
	itemID := uuid.New()
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []models.CartItem{
			{ID: itemID, ProductID: product.ID, Quantity: 1, Product: product},
		},
	}

	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(cart, nil)
	st.EXPECT().UpdateCartItemQuantity(gomock.Any(), cart.ID, itemID, int64(3)).Return(nil)
	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(cart, nil)

	_, err := svc.UpdateCartItem(context.Background(), userID, itemID, 3)
	require.NoError(t, err)
}

func TestUpdateCartItem_UnknownItem(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(emptyCart(userID), nil)

	_, err := svc.UpdateCartItem(context.Background(), userID, uuid.New(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCartItem_ExceedsStock(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	product := &models.Product{ID: uuid.New(), InventoryCount: 2}
	itemID := uuid.New()
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []models.CartItem{
			{ID: itemID, ProductID: product.ID, Quantity: 1, Product: product},
		},
	}

	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(cart, nil)

	_, err := svc.UpdateCartItem(context.Background(), userID, itemID, 5)
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestRemoveCartItem_NotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	cart := emptyCart(userID)

	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(cart, nil)
	st.EXPECT().RemoveCartItem(gomock.Any(), cart.ID, gomock.Any()).Return(storage.ErrNotFound)

	_, err := svc.RemoveCartItem(context.Background(), userID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClearCart_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	cart := emptyCart(userID)

	st.EXPECT().EnsureCart(gomock.Any(), userID).Return(cart, nil)
	st.EXPECT().ClearCart(gomock.Any(), cart.ID).Return(nil)

	require.NoError(t, svc.ClearCart(context.Background(), userID))
}
