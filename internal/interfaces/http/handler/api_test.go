package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/shop/backend/internal/application/catalog"
	"github.com/shop/backend/internal/application/identity"
	importapp "github.com/shop/backend/internal/application/import"
	"github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/application/partner"
	domainidentity "github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/interfaces/http/handler"
	"github.com/shop/backend/internal/interfaces/http/middleware"
	"github.com/shop/backend/internal/interfaces/http/router"
	"github.com/shop/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testPassword = "Tr1cky-Lantern-42"

const shopFeed = `
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
      Color: gold
`

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type stubFetcher struct {
	data []byte
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

type apiFixture struct {
	db        *gorm.DB
	engine    *gin.Engine
	publisher *testutil.RecordingPublisher
	fetcher   *stubFetcher
}

type fixtureOption func(*fixtureSettings)

type fixtureSettings struct {
	maxUpload int64
}

func withUploadLimit(n int64) fixtureOption {
	return func(s *fixtureSettings) { s.maxUpload = n }
}

func newAPIFixture(t *testing.T, opts ...fixtureOption) *apiFixture {
	t.Helper()
	settings := fixtureSettings{}
	for _, opt := range opts {
		opt(&settings)
	}

	db := testutil.NewSQLiteDB(t)
	publisher := testutil.NewRecordingPublisher()
	fetcher := &stubFetcher{data: []byte(shopFeed)}
	log := zap.NewNop()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "shop-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	users := persistence.NewGormUserRepository(db)
	contacts := persistence.NewGormContactRepository(db)
	shops := persistence.NewGormShopRepository(db)
	offers := persistence.NewGormProductInfoRepository(db)

	authService := identity.NewAuthService(
		users,
		persistence.NewGormConfirmEmailTokenRepository(db),
		persistence.NewGormPasswordResetTokenRepository(db),
		jwtService,
		blacklist,
		identity.AuthServiceConfig{},
		log,
	)
	authService.SetEventPublisher(publisher)
	accountService := identity.NewAccountService(users, contacts, log)

	catalogService := catalogapp.NewService(shops, persistence.NewGormCategoryRepository(db), offers)

	orderService := ordering.NewService(ordering.Repositories{
		Orders:   persistence.NewGormOrderRepository(db),
		Items:    persistence.NewGormOrderItemRepository(db),
		Offers:   offers,
		Contacts: contacts,
		Shops:    shops,
	}, log)
	orderService.SetEventPublisher(publisher)

	importer := importapp.NewService(
		persistence.NewGormImportTransactor(db),
		log,
		importapp.WithHistory(persistence.NewGormImportHistoryRepository(db)),
		importapp.WithPublisher(publisher),
	)
	partnerService := partner.NewService(shops, importer, fetcher, log)
	partnerService.SetEventPublisher(publisher)

	engine := gin.New()
	engine.Use(middleware.RequestID(log))
	router.RegisterAPI(engine, router.Handlers{
		User:    handler.NewUserHandler(authService, accountService),
		Contact: handler.NewContactHandler(accountService),
		Catalog: handler.NewCatalogHandler(catalogService),
		Basket:  handler.NewBasketHandler(orderService),
		Order:   handler.NewOrderHandler(orderService),
		Partner: handler.NewPartnerHandler(partnerService, orderService, settings.maxUpload),
		Health:  handler.NewHealthHandler("shop", "test"),
	}, router.Guards{
		Auth: middleware.RequireAuth(jwtService, blacklist, log),
	})

	return &apiFixture{db: db, engine: engine, publisher: publisher, fetcher: fetcher}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var headers map[string]string
	if token != "" {
		headers = testutil.BearerHeader(token)
	}
	return testutil.PerformRequest(t, f.engine, method, path, body, headers)
}

func registerBody(email, userType string) map[string]any {
	return map[string]any{
		"first_name": "Ivan",
		"last_name":  "Petrov",
		"email":      email,
		"password":   testPassword,
		"company":    "Acme",
		"position":   "Manager",
		"type":       userType,
	}
}

// confirmToken returns the email confirmation token issued for the last registration
func (f *apiFixture) confirmToken(t *testing.T) string {
	t.Helper()
	events := f.publisher.OfType(domainidentity.EventTypeUserRegistered)
	require.NotEmpty(t, events)
	return events[len(events)-1].(*domainidentity.UserRegisteredEvent).TokenKey
}

// signUp registers, confirms and logs in an account, returning its token pair
func (f *apiFixture) signUp(t *testing.T, email, userType string) identity.LoginResponse {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/v1/user/register", registerBody(email, userType), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/user/register/confirm", map[string]string{
		"email": email,
		"token": f.confirmToken(t),
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{
		"email":    email,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutil.DecodeData[identity.LoginResponse](t, w)
}

func (f *apiFixture) upload(t *testing.T, token, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	headers := testutil.BearerHeader(token)
	headers["Content-Type"] = writer.FormDataContentType()
	return testutil.PerformRequest(t, f.engine, http.MethodPost, "/api/v1/partner/import", &body, headers)
}

// stockedShop signs up a shop user and imports the sample feed for it
func (f *apiFixture) stockedShop(t *testing.T) (string, importapp.Result) {
	t.Helper()
	shop := f.signUp(t, "partner@example.com", "shop")
	w := f.upload(t, shop.AccessToken, "shop1.yaml", []byte(shopFeed))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return shop.AccessToken, testutil.DecodeData[importapp.Result](t, w)
}

// offerID returns the id of the only imported offer
func (f *apiFixture) offerID(t *testing.T) int64 {
	t.Helper()
	w := f.do(t, http.MethodGet, "/api/v1/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	products := testutil.DecodeData[[]catalogapp.ProductInfoResponse](t, w)
	require.Len(t, products, 1)
	return products[0].ID
}
