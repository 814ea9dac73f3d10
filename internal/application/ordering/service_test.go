package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/identity"
	domain "github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type orderingFixture struct {
	db        *gorm.DB
	service   *Service
	publisher *testutil.RecordingPublisher
	contacts  *persistence.GormContactRepository
}

func newOrderingFixture(t *testing.T) *orderingFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	contacts := persistence.NewGormContactRepository(db)
	service := NewService(Repositories{
		Orders:   persistence.NewGormOrderRepository(db),
		Items:    persistence.NewGormOrderItemRepository(db),
		Offers:   persistence.NewGormProductInfoRepository(db),
		Contacts: contacts,
		Shops:    persistence.NewGormShopRepository(db),
	}, zap.NewNop())
	publisher := testutil.NewRecordingPublisher()
	service.SetEventPublisher(publisher)
	return &orderingFixture{db: db, service: service, publisher: publisher, contacts: contacts}
}

// offer creates an offer in shop and returns its id
func (f *orderingFixture) offer(t *testing.T, shop string, owner *int64, product string, price string) int64 {
	t.Helper()
	var id int64
	err := persistence.NewGormImportTransactor(f.db).WithinImport(context.Background(), func(ctx context.Context, w catalog.Writer) error {
		s, _, err := w.EnsureShop(ctx, shop, owner)
		if err != nil {
			return err
		}
		category, err := w.EnsureCategory(ctx, 0, "Phones")
		if err != nil {
			return err
		}
		p, err := w.EnsureProduct(ctx, product, category.ID)
		if err != nil {
			return err
		}
		offer, err := catalog.NewProductInfo(p.ID, s.ID, product)
		if err != nil {
			return err
		}
		if err := offer.UpdateOffer("", decimal.RequireFromString(price), decimal.Zero, 10); err != nil {
			return err
		}
		if err := w.SaveOffer(ctx, offer); err != nil {
			return err
		}
		id = offer.ID
		return nil
	})
	require.NoError(t, err)
	return id
}

func (f *orderingFixture) contact(t *testing.T, userID int64) int64 {
	t.Helper()
	city, street, phone := "Moscow", "Tverskaya", "+70000000000"
	c, err := identity.NewContact(userID, identity.ContactDetails{City: &city, Street: &street, Phone: &phone})
	require.NoError(t, err)
	require.NoError(t, f.contacts.Save(context.Background(), c))
	return c.ID
}

func updates(t *testing.T, raw string) []BasketItemUpdate {
	t.Helper()
	var req UpdateItemsRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	return req.Items
}

func TestService_AddItemsAndGetBasket(t *testing.T) {
	f := newOrderingFixture(t)
	ctx := context.Background()
	phone := f.offer(t, "Alpha", nil, "Phone", "100.50")
	cable := f.offer(t, "Alpha", nil, "Cable", "10")

	baskets, err := f.service.GetBasket(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, baskets)

	created, err := f.service.AddItems(ctx, 1, []BasketItemInput{
		{ProductInfo: phone, Quantity: 2},
		{ProductInfo: cable, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	baskets, err = f.service.GetBasket(ctx, 1)
	require.NoError(t, err)
	require.Len(t, baskets, 1)
	basket := baskets[0]
	assert.Equal(t, "basket", basket.State)
	require.Len(t, basket.OrderedItems, 2)
	assert.Equal(t, "Phone", basket.OrderedItems[0].ProductInfo.Product.Name)
	assert.True(t, basket.TotalSum.Equal(decimal.RequireFromString("231")), basket.TotalSum.String())
}

func TestService_AddItems_Rejections(t *testing.T) {
	f := newOrderingFixture(t)
	ctx := context.Background()
	phone := f.offer(t, "Alpha", nil, "Phone", "100")

	t.Run("empty list", func(t *testing.T) {
		_, err := f.service.AddItems(ctx, 1, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown offer", func(t *testing.T) {
		_, err := f.service.AddItems(ctx, 1, []BasketItemInput{{ProductInfo: 999, Quantity: 1}})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("non positive quantity", func(t *testing.T) {
		_, err := f.service.AddItems(ctx, 1, []BasketItemInput{{ProductInfo: phone, Quantity: 0}})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("duplicate is never merged", func(t *testing.T) {
		_, err := f.service.AddItems(ctx, 2, []BasketItemInput{{ProductInfo: phone, Quantity: 1}})
		require.NoError(t, err)

		_, err = f.service.AddItems(ctx, 2, []BasketItemInput{{ProductInfo: phone, Quantity: 5}})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		baskets, err := f.service.GetBasket(ctx, 2)
		require.NoError(t, err)
		require.Len(t, baskets[0].OrderedItems, 1)
		assert.Equal(t, 1, baskets[0].OrderedItems[0].Quantity)
	})
}

func TestService_UpdateItems(t *testing.T) {
	f := newOrderingFixture(t)
	ctx := context.Background()
	phone := f.offer(t, "Alpha", nil, "Phone", "100")

	_, err := f.service.AddItems(ctx, 1, []BasketItemInput{{ProductInfo: phone, Quantity: 1}})
	require.NoError(t, err)
	baskets, err := f.service.GetBasket(ctx, 1)
	require.NoError(t, err)
	lineID := baskets[0].OrderedItems[0].ID

	// a line of another user's basket is out of scope
	_, err = f.service.AddItems(ctx, 2, []BasketItemInput{{ProductInfo: phone, Quantity: 1}})
	require.NoError(t, err)
	other, err := f.service.GetBasket(ctx, 2)
	require.NoError(t, err)
	otherLine := other[0].OrderedItems[0].ID

	raw := `{"items":[
		{"id":` + jsonInt(lineID) + `,"quantity":4},
		{"id":"` + jsonInt(lineID) + `","quantity":9},
		{"id":` + jsonInt(lineID) + `,"quantity":2.5},
		{"id":` + jsonInt(otherLine) + `,"quantity":7}
	]}`
	updated, err := f.service.UpdateItems(ctx, 1, updates(t, raw))
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	baskets, err = f.service.GetBasket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, baskets[0].OrderedItems[0].Quantity)

	other, err = f.service.GetBasket(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, other[0].OrderedItems[0].Quantity)
}

func TestService_DeleteItems(t *testing.T) {
	f := newOrderingFixture(t)
	ctx := context.Background()
	phone := f.offer(t, "Alpha", nil, "Phone", "100")
	cable := f.offer(t, "Alpha", nil, "Cable", "5")

	_, err := f.service.AddItems(ctx, 1, []BasketItemInput{{ProductInfo: phone, Quantity: 1}, {ProductInfo: cable, Quantity: 1}})
	require.NoError(t, err)
	baskets, err := f.service.GetBasket(ctx, 1)
	require.NoError(t, err)
	first := baskets[0].OrderedItems[0].ID

	_, err = f.service.DeleteItems(ctx, 1, "a,b")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	deleted, err := f.service.DeleteItems(ctx, 1, jsonInt(first)+",x,99999")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	baskets, err = f.service.GetBasket(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, baskets[0].OrderedItems, 1)
}

func TestService_Checkout(t *testing.T) {
	f := newOrderingFixture(t)
	ctx := context.Background()
	phone := f.offer(t, "Alpha", nil, "Phone", "100")

	_, err := f.service.AddItems(ctx, 1, []BasketItemInput{{ProductInfo: phone, Quantity: 3}})
	require.NoError(t, err)
	baskets, err := f.service.GetBasket(ctx, 1)
	require.NoError(t, err)
	orderID := baskets[0].ID
	contactID := f.contact(t, 1)
	strangerContact := f.contact(t, 2)

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.service.Checkout(ctx, 1, orderID+100, contactID)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "NOT_FOUND", de.Code)
		assert.Equal(t, "order not found", de.Message)
	})

	t.Run("foreign contact", func(t *testing.T) {
		_, err := f.service.Checkout(ctx, 1, orderID, strangerContact)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "contact not found", de.Message)
	})

	t.Run("places the basket", func(t *testing.T) {
		order, err := f.service.Checkout(ctx, 1, orderID, contactID)
		require.NoError(t, err)
		assert.Equal(t, "new", order.State)
		require.NotNil(t, order.ContactID)
		assert.Equal(t, contactID, *order.ContactID)
		assert.True(t, order.TotalSum.Equal(decimal.NewFromInt(300)))

		events := f.publisher.OfType(domain.EventTypeOrderCreated)
		require.Len(t, events, 1)
		created := events[0].(*domain.OrderCreatedEvent)
		assert.Equal(t, orderID, created.OrderID)
		assert.Equal(t, int64(1), created.UserID)
	})

	t.Run("placed order is no longer a basket", func(t *testing.T) {
		_, err := f.service.Checkout(ctx, 1, orderID, contactID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		baskets, err := f.service.GetBasket(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, baskets)

		orders, err := f.service.ListOrders(ctx, 1)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, orderID, orders[0].ID)
	})
}

func TestService_Checkout_PublishFailureIsNotFatal(t *testing.T) {
	f := newOrderingFixture(t)
	ctx := context.Background()
	phone := f.offer(t, "Alpha", nil, "Phone", "100")
	f.publisher.SetError(errors.New("bus stopped"))

	_, err := f.service.AddItems(ctx, 1, []BasketItemInput{{ProductInfo: phone, Quantity: 1}})
	require.NoError(t, err)
	baskets, err := f.service.GetBasket(ctx, 1)
	require.NoError(t, err)

	order, err := f.service.Checkout(ctx, 1, baskets[0].ID, f.contact(t, 1))
	require.NoError(t, err)
	assert.Equal(t, "new", order.State)
}

func TestService_ListPartnerOrders(t *testing.T) {
	f := newOrderingFixture(t)
	ctx := context.Background()
	partner := int64(50)
	ours := f.offer(t, "Partner", &partner, "Phone", "100")
	theirs := f.offer(t, "Other", nil, "Cable", "5")

	place := func(userID int64, offers ...int64) {
		inputs := make([]BasketItemInput, len(offers))
		for i, id := range offers {
			inputs[i] = BasketItemInput{ProductInfo: id, Quantity: 1}
		}
		_, err := f.service.AddItems(ctx, userID, inputs)
		require.NoError(t, err)
		baskets, err := f.service.GetBasket(ctx, userID)
		require.NoError(t, err)
		_, err = f.service.Checkout(ctx, userID, baskets[0].ID, f.contact(t, userID))
		require.NoError(t, err)
	}
	place(1, ours, theirs)
	place(2, theirs)

	// an open basket with the partner's offer is not an order
	_, err := f.service.AddItems(ctx, 3, []BasketItemInput{{ProductInfo: ours, Quantity: 1}})
	require.NoError(t, err)

	orders, err := f.service.ListPartnerOrders(ctx, partner)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].OrderedItems, 2)

	none, err := f.service.ListPartnerOrders(ctx, 777)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
