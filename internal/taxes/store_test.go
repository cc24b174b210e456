package taxes

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/cache"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/testutil"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T, client *network.Client) *Store {
	t.Helper()
	db := testutil.Database(t, &TaxClassEntity{}, &TaxRateEntity{})
	if client == nil {
		client = testutil.Client()
	}
	return NewStore(client, NewDAO(db.DB), zap.NewNop())
}

func TestTaxRateDTO_ToModel(t *testing.T) {
	var dto TaxRateDTO
	raw := `{"id":72,"country":"US","state":"AL","postcode":"35041","city":"Cardiff",
		"postcodes":["35014","35036"],"cities":["ALPINE","BESSEMER"],"rate":"4.0000",
		"name":"State Tax","priority":"0","compound":false,"shipping":true,"order":1,"class":"standard"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &dto))

	rate := dto.ToModel()
	assert.Equal(t, int64(72), rate.ID)
	assert.Equal(t, "35014;35036", rate.Postcode)
	assert.Equal(t, "ALPINE;BESSEMER", rate.City)
	assert.Equal(t, "4.0000", rate.Rate)
	assert.True(t, rate.Shipping)
	assert.Equal(t, "standard", rate.TaxClass)

	var empty TaxRateDTO
	assert.Equal(t, TaxRate{}, empty.ToModel())
}

func TestFetchTaxClassList_UsesCache(t *testing.T) {
	var calls atomic.Int32
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/wp-json/wc/v3/taxes/classes", r.URL.Path)
		testutil.JSON(w, `[{"slug":"standard","name":"Standard rate"},{"slug":"zero-rate","name":"Zero rate"}]`)
	})
	client := network.NewClient(network.Options{Logger: zap.NewNop(), Cache: cache.NewMemory(), RateLimitPerSecond: 100, Burst: 100})
	store := newStore(t, client)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	first := store.FetchTaxClassList(ctx, s)
	second := store.FetchTaxClassList(ctx, s)

	require.False(t, first.IsError())
	require.False(t, second.IsError())
	assert.Equal(t, first.Model, second.Model)
	assert.Equal(t, int32(1), calls.Load())

	stored, err := store.GetTaxClassListForSite(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []TaxClass{{Name: "Standard rate", Slug: "standard"}, {Name: "Zero rate", Slug: "zero-rate"}}, stored)
}

func TestCreateTaxClass(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Reduced", body["name"])
		testutil.JSON(w, `{"slug":"reduced","name":"Reduced"}`)
	})
	store := newStore(t, nil)
	s := testutil.Site(server.URL)

	result := store.CreateTaxClass(context.Background(), s, "Reduced")
	require.False(t, result.IsError())
	assert.Equal(t, "reduced", result.Model.Slug)

	stored, err := store.GetTaxClassListForSite(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCreateTaxClass_RefetchSkipsStaleCache(t *testing.T) {
	var created atomic.Bool
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			created.Store(true)
			testutil.JSON(w, `{"slug":"green","name":"Green"}`)
		default:
			if created.Load() {
				testutil.JSON(w, `[{"slug":"standard","name":"Standard"},{"slug":"green","name":"Green"}]`)
				return
			}
			testutil.JSON(w, `[{"slug":"standard","name":"Standard"}]`)
		}
	})
	client := network.NewClient(network.Options{Logger: zap.NewNop(), Cache: cache.NewMemory(), CacheTTL: time.Hour, RateLimitPerSecond: 100, Burst: 100})
	store := newStore(t, client)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	require.False(t, store.FetchTaxClassList(ctx, s).IsError())
	require.False(t, store.CreateTaxClass(ctx, s, "Green").IsError())

	refetched := store.FetchTaxClassList(ctx, s)
	require.False(t, refetched.IsError())
	assert.Len(t, refetched.Model, 2)

	stored, err := store.GetTaxClassListForSite(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []TaxClass{{Name: "Standard", Slug: "standard"}, {Name: "Green", Slug: "green"}}, stored)
}

func TestCreateTaxClass_AlreadyExists(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.Error(w, http.StatusBadRequest, "woocommerce_rest_tax_class_exists", "Tax class already exists.")
	})
	store := newStore(t, nil)

	result := store.CreateTaxClass(context.Background(), testutil.Site(server.URL), "Standard")
	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorResourceAlreadyExists, result.Error.Type)
}

func TestCreateTaxClass_EmptyName(t *testing.T) {
	store := newStore(t, nil)
	result := store.CreateTaxClass(context.Background(), testutil.Site("http://127.0.0.1:1"), "  ")
	require.True(t, result.IsError())
	assert.Equal(t, woo.ErrorInvalidParam, result.Error.Type)
}

func TestFetchTaxRateList_FirstPageClearsRates(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			testutil.JSON(w, `[{"id":1,"country":"US","rate":"4.0000","order":1}]`)
		case "2":
			testutil.JSON(w, `[{"id":2,"country":"CA","rate":"5.0000","order":2,"class":"reduced-rate"}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	store := newStore(t, nil)
	s := testutil.Site(server.URL)
	ctx := context.Background()

	require.NoError(t, store.dao.UpsertTaxRates(ctx, s.LocalID, []TaxRate{{ID: 99}}, false))

	require.False(t, store.FetchTaxRateList(ctx, s, 1, 0).IsError())
	require.False(t, store.FetchTaxRateList(ctx, s, 2, 0).IsError())

	rates, err := store.GetTaxRateList(ctx, s)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, int64(1), rates[0].ID)
	assert.Equal(t, int64(2), rates[1].ID)

	reduced, err := store.GetTaxRatesForClass(ctx, s, "reduced-rate")
	require.NoError(t, err)
	require.Len(t, reduced, 1)
	assert.Equal(t, int64(2), reduced[0].ID)
}

func TestFetchTaxRate_UpdatesExisting(t *testing.T) {
	server := testutil.Server(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/taxes/7", r.URL.Path)
		testutil.JSON(w, `{"id":7,"country":"US","rate":"8.2500","name":"New"}`)
	})
	store := newStore(t, nil)
	s := testutil.Site(server.URL)
	ctx := context.Background()
	require.NoError(t, store.dao.UpsertTaxRates(ctx, s.LocalID, []TaxRate{{ID: 7, Name: "Old"}}, false))

	result := store.FetchTaxRate(ctx, s, 7)
	require.False(t, result.IsError())

	stored, err := store.GetTaxRate(ctx, s, 7)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "New", stored.Name)
	assert.Equal(t, "8.2500", stored.Rate)

	missing, err := store.GetTaxRate(ctx, s, 8)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
