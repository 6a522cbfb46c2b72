package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

func validProductInput() ProductInput {
	return ProductInput{
		Name:           "Ceramic Mug",
		Slug:           "ceramic-mug",
		Description:    "350ml mug",
		PriceCents:     1299,
		CategoryID:     uuid.New(),
		InventoryCount: 10,
	}
}

func TestListProducts_NormalizesLimit(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	// limit<=0 → PageSize.
	st.EXPECT().Products(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
			require.Equal(t, testCatalogCfg().PageSize, f.Limit)
			require.Equal(t, 0, f.Offset)
			return nil, 0, nil
		})

	_, err := svc.ListProducts(ctx, models.ProductFilter{Limit: 0, Offset: -5})
	require.NoError(t, err)

	// limit>Max → MaxPageSize.
	st.EXPECT().Products(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
			require.Equal(t, testCatalogCfg().MaxPageSize, f.Limit)
			return nil, 0, nil
		})

	_, err = svc.ListProducts(ctx, models.ProductFilter{Limit: 10_000})
	require.NoError(t, err)
}

func TestListProducts_UnknownOrdering(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.ListProducts(context.Background(), models.ProductFilter{Ordering: "popularity"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListProducts_ReturnsTotal(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().Products(gomock.Any(), gomock.Any()).
		Return([]models.Product{{ID: uuid.New()}}, int64(42), nil)

	page, err := svc.ListProducts(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.EqualValues(t, 42, page.Total)
	require.Equal(t, testCatalogCfg().PageSize, page.Limit)
}

func TestFeaturedProducts_FilterAndLimit(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().Products(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
			require.NotNil(t, f.Featured)
			require.True(t, *f.Featured)
			require.Equal(t, featuredLimit, f.Limit)
			return nil, 0, nil
		})

	_, err := svc.FeaturedProducts(context.Background())
	require.NoError(t, err)
}

func TestProductBySlug_NotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().ProductBySlug(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	_, err := svc.ProductBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProduct_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveProduct(gomock.Any(), gomock.Any()).Return(nil)

	p, err := svc.CreateProduct(context.Background(), validProductInput())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, p.ID)
	require.True(t, p.IsActive)
}

func TestCreateProduct_Validation(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	in := validProductInput()
	in.Name = "ab"
	in.PriceCents = 0
	in.InventoryCount = -1

	_, err := svc.CreateProduct(context.Background(), in)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")
	require.Contains(t, verr.Fields, "price_cents")
	require.Contains(t, verr.Fields, "inventory_count")
}

func TestCreateProduct_SlugTaken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveProduct(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, err := svc.CreateProduct(context.Background(), validProductInput())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "slug")
}

func TestUpdateProduct_NotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().ProductBySlug(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	_, err := svc.UpdateProduct(context.Background(), "missing", validProductInput())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProduct_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	existing := &models.Product{ID: uuid.New(), Slug: "ceramic-mug", PriceCents: 999}

	st.EXPECT().ProductBySlug(gomock.Any(), "ceramic-mug").Return(existing, nil)
	st.EXPECT().UpdateProduct(gomock.Any(), "ceramic-mug", gomock.Any()).Return(nil)

	in := validProductInput()
	in.PriceCents = 1499

	p, err := svc.UpdateProduct(context.Background(), "ceramic-mug", in)
	require.NoError(t, err)
	require.EqualValues(t, 1499, p.PriceCents)
	require.Equal(t, existing.ID, p.ID)
}

func TestUpdateProduct_RenamesSlug(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	existing := &models.Product{ID: uuid.New(), Slug: "ceramic-mug", PriceCents: 999}

	st.EXPECT().ProductBySlug(gomock.Any(), "ceramic-mug").Return(existing, nil)
	// Поиск идёт по старому slug из URL, новый slug — в самом товаре.
	st.EXPECT().UpdateProduct(gomock.Any(), "ceramic-mug", gomock.Any()).
		DoAndReturn(func(_ context.Context, slug string, p *models.Product) error {
			require.Equal(t, "ceramic-mug", slug)
			require.Equal(t, "stoneware-mug", p.Slug)
			return nil
		})

	in := validProductInput()
	in.Slug = "stoneware-mug"

	p, err := svc.UpdateProduct(context.Background(), "ceramic-mug", in)
	require.NoError(t, err)
	require.Equal(t, "stoneware-mug", p.Slug)
}

func TestUpdateProduct_NewSlugTaken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	existing := &models.Product{ID: uuid.New(), Slug: "ceramic-mug"}

	st.EXPECT().ProductBySlug(gomock.Any(), "ceramic-mug").Return(existing, nil)
	st.EXPECT().UpdateProduct(gomock.Any(), "ceramic-mug", gomock.Any()).
		Return(storage.ErrAlreadyExists)

	in := validProductInput()
	in.Slug = "stoneware-mug"

	_, err := svc.UpdateProduct(context.Background(), "ceramic-mug", in)
	require.ErrorIs(t, err, ErrInvalidArgument)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "slug")
}

func TestDeleteProduct_SoftDelete(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().DeactivateProduct(gomock.Any(), "ceramic-mug").Return(nil)
	require.NoError(t, svc.DeleteProduct(context.Background(), "ceramic-mug"))

	st.EXPECT().DeactivateProduct(gomock.Any(), "missing").Return(storage.ErrNotFound)
	require.ErrorIs(t, svc.DeleteProduct(context.Background(), "missing"), ErrNotFound)
}

func TestCategories_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().Categories(gomock.Any()).Return(nil, errors.New("db down"))

	_, err := svc.Categories(context.Background())
	require.Error(t, err)
}
