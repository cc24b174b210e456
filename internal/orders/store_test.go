package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/dispatcher"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/testutil"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const order727 = `{
	"id": 727,
	"number": "727",
	"status": "processing",
	"currency": "USD",
	"date_created_gmt": "2024-04-01T12:00:00",
	"date_modified_gmt": "2024-04-01T12:30:00",
	"date_paid_gmt": null,
	"total": "29.35",
	"total_tax": "1.35",
	"shipping_total": "10.00",
	"discount_total": "0.00",
	"customer_id": 25,
	"customer_note": "",
	"payment_method": "bacs",
	"payment_method_title": "Direct Bank Transfer",
	"billing": {"first_name": "John", "email": "john.doe@example.com"},
	"shipping": {"first_name": "John"},
	"line_items": [
		{"id": 315, "product_id": 93, "variation_id": 0, "name": "Woo Single #1", "sku": "W1", "quantity": 2, "subtotal": "6.00", "total": "6.00", "total_tax": "0.45", "price": 3},
		{"id": 316, "product_id": 22, "variation_id": 23, "name": "Ship Your Idea", "quantity": 1, "subtotal": "12.00", "total": "12.00", "total_tax": "0.90", "price": 12}
	]
}`

type recorder struct {
	mu     sync.Mutex
	events []dispatcher.Event
}

func (r *recorder) Emit(e dispatcher.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) all() []dispatcher.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dispatcher.Event(nil), r.events...)
}

func newStore(t *testing.T) (*Store, *recorder) {
	t.Helper()
	db := testutil.Database(t, &OrderEntity{}, &LineItemEntity{})
	rec := &recorder{}
	return NewStore(testutil.Client(), NewDAO(db.DB), rec, zap.NewNop()), rec
}

func withStatus(status string) string {
	var raw map[string]any
	_ = json.Unmarshal([]byte(order727), &raw)
	raw["status"] = status
	out, _ := json.Marshal(raw)
	return string(out)
}

func TestOrderDTO_ToModel(t *testing.T) {
	var dto OrderDTO
	require.NoError(t, json.Unmarshal([]byte(order727), &dto))

	order := dto.ToModel(3)
	assert.Equal(t, 3, order.LocalSiteID)
	assert.Equal(t, int64(727), order.RemoteOrderID)
	assert.Equal(t, "2024-04-01T12:00:00Z", order.DateCreated)
	assert.Equal(t, "", order.DatePaid)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("29.35")))
	assert.Equal(t, int64(25), order.CustomerID)
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, int64(23), order.LineItems[1].VariationID)
	assert.Equal(t, []string{"Woo Single #1", "Ship Your Idea"}, order.Snapshot().ProductNames)
}

func TestOrderDTO_ToModel_NumberFallsBackToID(t *testing.T) {
	var dto OrderDTO
	require.NoError(t, json.Unmarshal([]byte(`{"id":"88"}`), &dto))
	order := dto.ToModel(1)
	assert.Equal(t, "88", order.Number)
	assert.Empty(t, order.LineItems)
	assert.True(t, order.Total.IsZero())
}

func TestFetchOrders_PersistsWithLineItems(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)
		assert.Equal(t, "processing,on-hold", q.Get("status"))
		assert.Equal(t, "2024-01-01T00:00:00", q.Get("after"))
		assert.Equal(t, "25", q.Get("per_page"))
		testutil.JSON(w, `[`+order727+`]`)
	})
	store, rec := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	result := store.FetchOrders(ctx, s, OrderQuery{Statuses: []string{"processing", "on-hold"}, After: "2024-01-01"})

	require.False(t, result.IsError())
	require.Len(t, result.Model, 1)
	assert.NotZero(t, result.Model[0].LocalID)
	assert.Empty(t, rec.all(), "first sight of an order is not a status change")

	stored, err := store.GetOrder(ctx, s, woo.RemoteID(727))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.Model[0].LocalID, stored.LocalID)
	require.Len(t, stored.LineItems, 2)
	assert.Equal(t, "W1", stored.LineItems[0].SKU)
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("29.35")))

	byLocal, err := store.GetOrder(ctx, s, woo.LocalID(stored.LocalID))
	require.NoError(t, err)
	require.NotNil(t, byLocal)
	assert.Equal(t, int64(727), byLocal.RemoteOrderID)
}

func TestFetchOrders_InvalidDateFilter(t *testing.T) {
	store, _ := newStore(t)
	result := store.FetchOrders(context.Background(), testutil.Site("http://127.0.0.1:1"), OrderQuery{Before: "yesterday"})
	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorInvalidParam, result.Error.Type)
}

func TestFetchSingleOrder_EmitsStatusChange(t *testing.T) {
	var status atomic.Value
	status.Store("processing")
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.JSON(w, withStatus(status.Load().(string)))
	})
	store, rec := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	first := store.FetchSingleOrder(ctx, s, 727)
	require.False(t, first.IsError())

	status.Store("completed")
	second := store.FetchSingleOrder(ctx, s, 727)
	require.False(t, second.IsError())
	assert.Equal(t, first.Model.LocalID, second.Model.LocalID)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, dispatcher.EventOrderStatusChanged, events[0].Type)
	change := events[0].Payload.(StatusChange)
	assert.Equal(t, "processing", change.OldStatus)
	assert.Equal(t, "completed", change.NewStatus)
	assert.Equal(t, first.Model.LocalID, change.LocalOrderID)

	// misma respuesta otra vez: sin evento nuevo
	require.False(t, store.FetchSingleOrder(ctx, s, 727).IsError())
	assert.Len(t, rec.all(), 1)

	orders, err := store.GetOrdersForSite(ctx, s)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestFetchSingleOrder_StoredEqualsFetched(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.JSON(w, order727)
	})
	store, _ := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	result := store.FetchSingleOrder(ctx, s, 727)
	require.False(t, result.IsError())

	stored, err := store.GetOrder(ctx, s, woo.RemoteID(727))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.Model, *stored)
	assert.Equal(t, "10.00", convert.AmountString(stored.ShippingTotal))
	assert.Equal(t, "6.00", convert.AmountString(stored.LineItems[0].Subtotal))
}

func TestUpdateOrderStatus_ByLocalID(t *testing.T) {
	var status atomic.Value
	status.Store("processing")
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "completed", body["status"])
			status.Store(body["status"])
		}
		testutil.JSON(w, withStatus(status.Load().(string)))
	})
	store, rec := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	fetched := store.FetchSingleOrder(ctx, s, 727)
	require.False(t, fetched.IsError())

	result := store.UpdateOrderStatus(ctx, s, woo.LocalID(fetched.Model.LocalID), StatusCompleted)
	require.False(t, result.IsError())
	assert.Equal(t, StatusCompleted, result.Model.Status)

	completed, err := store.GetOrdersForSite(ctx, s, StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
	require.Len(t, rec.all(), 1)
}

func TestUpdateOrderStatus_RevertsOnFailure(t *testing.T) {
	var fail atomic.Bool
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			testutil.Error(w, http.StatusBadRequest, "woocommerce_rest_shop_order_invalid_id", "Invalid ID.")
			return
		}
		testutil.JSON(w, order727)
	})
	store, rec := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()
	require.False(t, store.FetchSingleOrder(ctx, s, 727).IsError())

	fail.Store(true)
	result := store.UpdateOrderStatus(ctx, s, woo.RemoteID(727), StatusCancelled)

	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorInvalidID, result.Error.Type)
	stored, err := store.GetOrder(ctx, s, woo.RemoteID(727))
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, stored.Status)
	assert.Empty(t, rec.all())
}

func TestUpdateOrderStatus_UnknownLocalOrder(t *testing.T) {
	store, _ := newStore(t)
	result := store.UpdateOrderStatus(context.Background(), testutil.Site("http://127.0.0.1:1"), woo.LocalID(99), StatusCompleted)
	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorInvalidParam, result.Error.Type)
}

func TestCreateOrder_AssignsRemoteIDToDraft(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		items := body["line_items"].([]any)
		require.Len(t, items, 1)
		testutil.JSON(w, order727)
	})
	store, _ := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	result := store.CreateOrder(ctx, s, CreateOrderRequest{
		Status:        StatusProcessing,
		PaymentMethod: "bacs",
		LineItems:     []LineItemRequest{{ProductID: 93, Quantity: 2}},
	})

	require.False(t, result.IsError())
	assert.Equal(t, int64(727), result.Model.RemoteOrderID)
	assert.Equal(t, int64(1), result.Model.LocalID)

	all, err := store.GetOrdersForSite(ctx, s)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(727), all[0].RemoteOrderID)
	assert.Len(t, all[0].LineItems, 2)
}

func TestCreateOrder_RemovesDraftOnFailure(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.Error(w, http.StatusBadRequest, "rest_invalid_param", "Invalid parameter(s): line_items")
	})
	store, _ := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	result := store.CreateOrder(ctx, s, CreateOrderRequest{LineItems: []LineItemRequest{{ProductID: 1, Quantity: 1}}})

	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorInvalidParam, result.Error.Type)
	all, err := store.GetOrdersForSite(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, all)

	var items int64
	require.NoError(t, store.dao.db.Model(&LineItemEntity{}).Count(&items).Error)
	assert.Zero(t, items)
}

func TestCreateOrder_ValidatesLineItems(t *testing.T) {
	store, _ := newStore(t)
	result := store.CreateOrder(context.Background(), testutil.Site("http://127.0.0.1:1"), CreateOrderRequest{
		LineItems: []LineItemRequest{{ProductID: 0, Quantity: 1}},
	})
	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorInvalidParam, result.Error.Type)
}

func TestDeleteOrder_RemovesRowAndLineItems(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			assert.Equal(t, "true", r.URL.Query().Get("force"))
		}
		testutil.JSON(w, order727)
	})
	store, _ := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()
	require.False(t, store.FetchSingleOrder(ctx, s, 727).IsError())

	result := store.DeleteOrder(ctx, s, woo.RemoteID(727), true)
	require.False(t, result.IsError())

	stored, err := store.GetOrder(ctx, s, woo.RemoteID(727))
	require.NoError(t, err)
	assert.Nil(t, stored)

	var items int64
	require.NoError(t, store.dao.db.Model(&LineItemEntity{}).Count(&items).Error)
	assert.Zero(t, items)
}

func TestLocalDraft_DeleteSkipsAPIAndStatusIsRejected(t *testing.T) {
	var hits atomic.Int32
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		testutil.JSON(w, order727)
	})
	store, _ := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	draft, err := store.dao.InsertOrUpdate(ctx, Order{LocalSiteID: s.LocalID, Status: StatusPending})
	require.NoError(t, err)
	require.True(t, draft.IsLocalDraft())

	update := store.UpdateOrderStatus(ctx, s, woo.LocalID(draft.LocalID), StatusProcessing)
	require.True(t, update.IsError())
	assert.Equal(t, woo.ErrorInvalidParam, update.Error.Type)

	deleted := store.DeleteOrder(ctx, s, woo.LocalID(draft.LocalID), false)
	require.False(t, deleted.IsError())
	assert.Equal(t, draft.LocalID, deleted.Model.LocalID)
	assert.Zero(t, hits.Load())

	stored, err := store.GetOrder(ctx, s, woo.LocalID(draft.LocalID))
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDAO_DeleteForSite(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	_, err := store.dao.InsertOrUpdate(ctx, Order{LocalSiteID: 1, RemoteOrderID: 1, LineItems: []LineItem{{Name: "a"}}})
	require.NoError(t, err)
	_, err = store.dao.InsertOrUpdate(ctx, Order{LocalSiteID: 2, RemoteOrderID: 1, LineItems: []LineItem{{Name: "b"}}})
	require.NoError(t, err)

	n, err := store.dao.DeleteForSite(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var items int64
	require.NoError(t, store.dao.db.Model(&LineItemEntity{}).Count(&items).Error)
	assert.Equal(t, int64(1), items)
}
