package partner

import (
	"context"
	"errors"
	"testing"

	importapp "github.com/shop/backend/internal/application/import"
	"github.com/shop/backend/internal/domain/bulk"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"github.com/shop/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const partnerFeed = `
shop: Svyaznoy
categories:
  - id: 224
    name: Smartphones
goods:
  - id: 4216292
    category: 224
    model: apple/iphone/xs-max
    name: Smartphone Apple iPhone XS Max 512GB
    price: 110000
    price_rrc: 116990
    quantity: 14
    parameters:
      "Screen (inch)": 6.5
      Color: gold
`

type fakeFetcher struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	f.urls = append(f.urls, rawURL)
	return f.data, f.err
}

type partnerFixture struct {
	db        *gorm.DB
	service   *Service
	fetcher   *fakeFetcher
	publisher *testutil.RecordingPublisher
	shops     *persistence.GormShopRepository
}

func newPartnerFixture(t *testing.T) *partnerFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	publisher := testutil.NewRecordingPublisher()
	importer := importapp.NewService(
		persistence.NewGormImportTransactor(db),
		zap.NewNop(),
		importapp.WithHistory(persistence.NewGormImportHistoryRepository(db)),
		importapp.WithPublisher(publisher),
	)
	fetcher := &fakeFetcher{data: []byte(partnerFeed)}
	shops := persistence.NewGormShopRepository(db)
	service := NewService(shops, importer, fetcher, zap.NewNop())
	service.SetEventPublisher(publisher)
	return &partnerFixture{db: db, service: service, fetcher: fetcher, publisher: publisher, shops: shops}
}

func TestParseState(t *testing.T) {
	for _, raw := range []string{"true", "True", "1", "yes", "YES", " on "} {
		assert.True(t, ParseState(raw), raw)
	}
	for _, raw := range []string{"false", "0", "no", "off", "", "enabled"} {
		assert.False(t, ParseState(raw), raw)
	}
}

func TestService_StateRequiresShop(t *testing.T) {
	f := newPartnerFixture(t)

	_, err := f.service.GetState(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.service.SetState(context.Background(), 1, "on")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_UpdateFromURL(t *testing.T) {
	f := newPartnerFixture(t)
	ctx := context.Background()
	const feedURL = "https://partner.example.com/feeds/shop1.yaml"

	result, err := f.service.UpdateFromURL(ctx, 9, feedURL)
	require.NoError(t, err)
	assert.Equal(t, "Svyaznoy", result.Shop)
	assert.Equal(t, 1, result.CreatedRows)
	assert.Equal(t, 2, result.Parameters)
	assert.Equal(t, []string{feedURL}, f.fetcher.urls)

	shop, err := f.service.GetState(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "Svyaznoy", shop.Name)
	assert.Equal(t, feedURL, shop.URL)
	assert.True(t, shop.State)

	history, err := f.service.ImportHistory(ctx, 9, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(bulk.ImportSourceURL), history[0].Source)
	assert.Equal(t, "shop1.yaml", history[0].FileName)

	refreshable, err := f.shops.FindRefreshable(ctx)
	require.NoError(t, err)
	require.Len(t, refreshable, 1)

	again, err := f.service.Refresh(ctx, refreshable[0])
	require.NoError(t, err)
	assert.Equal(t, 1, again.UpdatedRows)

	var offers int64
	require.NoError(t, f.db.Model(&models.ProductInfoModel{}).Count(&offers).Error)
	assert.Equal(t, int64(1), offers)
}

func TestService_UpdateFromURL_Rejections(t *testing.T) {
	f := newPartnerFixture(t)
	ctx := context.Background()

	_, err := f.service.UpdateFromURL(ctx, 9, "ftp://example.com/feed.yaml")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Empty(t, f.fetcher.urls)

	f.fetcher.err = errors.New("connection refused")
	_, err = f.service.UpdateFromURL(ctx, 9, "https://example.com/feed.yaml")
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "FEED_UNAVAILABLE", de.Code)

	_, err = f.service.Refresh(ctx, catalog.Shop{Name: "NoURL"})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestService_SetState(t *testing.T) {
	f := newPartnerFixture(t)
	ctx := context.Background()
	_, err := f.service.UpdateFromURL(ctx, 9, "https://partner.example.com/feed.yaml")
	require.NoError(t, err)

	shop, err := f.service.SetState(ctx, 9, "off")
	require.NoError(t, err)
	assert.False(t, shop.State)

	shop, err = f.service.SetState(ctx, 9, "off")
	require.NoError(t, err)
	assert.False(t, shop.State)

	shop, err = f.service.SetState(ctx, 9, "Yes")
	require.NoError(t, err)
	assert.True(t, shop.State)

	changes := f.publisher.OfType(catalog.EventTypeShopStateChanged)
	assert.Len(t, changes, 2, "repeating the current state records nothing")
}

func TestService_ImportUploadUsesOwnShop(t *testing.T) {
	f := newPartnerFixture(t)
	ctx := context.Background()
	_, err := f.service.UpdateFromURL(ctx, 9, "https://partner.example.com/feed.yaml")
	require.NoError(t, err)

	csv := "shop,category,product,sku,price,quantity\n" +
		"Somebody Else,Cables,USB-C cable,C-1,490,30\n"
	result, err := f.service.Import(ctx, 9, "cables.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, "Svyaznoy", result.Shop)

	var shops int64
	require.NoError(t, f.db.Model(&models.ShopModel{}).Count(&shops).Error)
	assert.Equal(t, int64(1), shops)

	history, err := f.service.ImportHistory(ctx, 9, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, string(bulk.ImportSourceUpload), history[0].Source)
}
