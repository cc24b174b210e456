package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/testutil"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const codGateway = `{
	"id": "cod",
	"title": "Cash on delivery",
	"description": "Pay with cash upon delivery.",
	"order": "2",
	"enabled": true,
	"method_title": "Cash on delivery",
	"method_description": "Have your customers pay with cash.",
	"method_supports": ["products"],
	"settings": {"title": {"value": "Cash on delivery"}}
}`

func newStore(t *testing.T) (*Store, *DAO) {
	t.Helper()
	db := testutil.Database(t, &GatewayEntity{})
	dao := NewDAO(db.DB)
	return NewStore(testutil.Client(), dao, zap.NewNop()), dao
}

func TestToModel_Defaults(t *testing.T) {
	var dto GatewayDTO
	require.NoError(t, json.Unmarshal([]byte(`{}`), &dto))

	g := dto.ToModel()
	assert.Equal(t, Gateway{Features: []string{}}, g)
}

func TestFetchGateway_PersistsModel(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/payment_gateways/cod", r.URL.Path)
		testutil.JSON(w, codGateway)
	})
	store, _ := newStore(t)
	s := testutil.Site(server.URL)

	result := store.FetchGateway(context.Background(), s, "cod")

	require.False(t, result.IsError())
	assert.Equal(t, "cod", result.Model.GatewayID)
	assert.Equal(t, 2, result.Model.Order)
	assert.True(t, result.Model.IsEnabled)
	assert.Equal(t, []string{"products"}, result.Model.Features)

	stored, err := store.GetGateway(context.Background(), s, "cod")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.Model, *stored)
}

func TestFetchAllGateways_ReplacesSiteSet(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.JSON(w, `[`+codGateway+`, {"id":"bacs","title":"Direct bank transfer","order":1,"enabled":false}]`)
	})
	store, dao := newStore(t)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	require.NoError(t, dao.Upsert(ctx, s.LocalID, Gateway{GatewayID: "stale"}))

	result := store.FetchAllGateways(ctx, s)
	require.False(t, result.IsError())
	assert.Len(t, result.Model, 2)

	all, err := store.GetAllGateways(ctx, s)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bacs", all[0].GatewayID)
	assert.Equal(t, "cod", all[1].GatewayID)

	stale, err := store.GetGateway(ctx, s, "stale")
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestUpdatePaymentGateway_SendsOnlySetFields(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"enabled": false}, body)
		testutil.JSON(w, `{"id":"cod","enabled":false}`)
	})
	store, _ := newStore(t)
	disabled := false

	result := store.UpdatePaymentGateway(context.Background(), testutil.Site(server.URL), "cod", UpdateGatewayRequest{Enabled: &disabled})

	require.False(t, result.IsError())
	assert.False(t, result.Model.IsEnabled)
}

func TestFetchGateway_APIError(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.Error(w, http.StatusNotFound, "woocommerce_rest_payment_gateway_invalid_id", "Invalid payment gateway ID.")
	})
	store, _ := newStore(t)
	s := testutil.Site(server.URL)

	result := store.FetchGateway(context.Background(), s, "nope")

	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorInvalidID, result.Error.Type)
	assert.Equal(t, "Invalid payment gateway ID.", result.Error.Message)

	stored, err := store.GetGateway(context.Background(), s, "nope")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestFetchGateway_PersistenceFailure(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.JSON(w, codGateway)
	})
	db := testutil.Database(t, &GatewayEntity{})
	store := NewStore(testutil.Client(), NewDAO(db.DB), zap.NewNop())
	require.NoError(t, db.Close())

	result := store.FetchGateway(context.Background(), testutil.Site(server.URL), "cod")

	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorGeneric, result.Error.Type)
}

func TestDeleteForSite(t *testing.T) {
	_, dao := newStore(t)
	ctx := context.Background()
	require.NoError(t, dao.Upsert(ctx, 1, Gateway{GatewayID: "cod"}))
	require.NoError(t, dao.Upsert(ctx, 2, Gateway{GatewayID: "cod"}))

	n, err := dao.DeleteForSite(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := dao.GetAll(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestDAO_CorruptFeatures(t *testing.T) {
	_, dao := newStore(t)
	ctx := context.Background()
	require.NoError(t, dao.db.Create(&GatewayEntity{LocalSiteID: 1, GatewayID: "bacs", Features: "{products"}).Error)

	_, err := dao.Get(ctx, 1, "bacs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding features of gateway bacs")

	_, err = dao.GetAll(ctx, 1)
	assert.Error(t, err)
}
