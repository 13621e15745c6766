package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/freight-cli/internal/model"
	"github.com/sells-group/freight-cli/internal/store"
)

func ptr(v float64) *float64 { return &v }

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seed(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.SaveRankedRoutes(ctx, "run-1", []model.RankedRoute{
		{Destination: "MUENSTER", ContainerType: "40HC", POD: "ROTTERDAM", TransportMode: "RAIL", Currency: "USD",
			Rate: ptr(500), OceanRate: ptr(1500), TotalRate: ptr(2000), Matched: true, CostRank: 1, TotalRoutes: 2},
		{Destination: "MUENSTER", ContainerType: "40HC", POD: "HAMBURG", TransportMode: "TRUCK", Currency: "USD",
			Rate: ptr(700), OceanRate: ptr(1600), TotalRate: ptr(2300), Matched: true, CostRank: 2, TotalRoutes: 2},
		{Destination: "MUENSTER", ContainerType: "40HC", POD: "ANTWERP", TransportMode: "TRUCK", Rate: ptr(400), TotalRoutes: 2},
	}))
	require.NoError(t, st.SaveSurchargeTable(ctx, &model.SurchargeTable{
		Route:   model.RouteInfo{From: "BUSAN", To: "MUENSTER, NW, GERMANY", Via: "HAMBURG"},
		Columns: []string{"40STD", "40HC"},
		Charges: model.Charges{
			&model.LeafCharge{Kind: model.ChargeKindOceanFreight, Description: "Ocean Freight", Currency: "USD",
				Amounts: model.Amounts{"40STD": "1500", "40HC": "1600"}},
			&model.LeafCharge{Kind: model.ChargeKindSurcharge, Description: "Terminal Handling Charge Dest.", Currency: "EUR",
				Amounts: model.Amounts{"40STD": "300", "40HC": "300"}},
			&model.ChargeGroup{Description: "Destination Landfreight", SubOptions: []model.SubOption{
				{Description: "Combined; rail/truck", Currency: "EUR", Amounts: model.Amounts{"40STD": "-", "40HC": "700"}},
				{Description: "Between 10 and 20 t", Currency: "EUR", Amounts: model.Amounts{"40STD": "800", "40HC": "900"}},
			}},
		},
	}))
	require.NoError(t, st.RecordResolution(ctx, &model.ResolutionEvent{
		Destination: "ATHENS, GREECE", Kind: "wrong_country_rejected", Prefix: "ATHENS", Selected: "ATHENS, AL, USA",
	}))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	h := NewRouter(st, nil)

	for _, path := range []string{"/health", "/api/health"} {
		rec := get(t, h, path)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.EqualValues(t, 1, body["destinations"])
		assert.EqualValues(t, 1, body["surchargeDestinations"])
	}
}

func TestCORSHeaders(t *testing.T) {
	h := NewRouter(newTestStore(t), nil)
	rec := get(t, h, "/health")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDestinationsAndContainerTypes(t *testing.T) {
	st := newTestStore(t)
	h := NewRouter(st, nil)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/destinations").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/container-types").Code)

	seed(t, st)

	rec := get(t, h, "/api/destinations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"MUENSTER"}, decode[[]string](t, rec))

	rec = get(t, h, "/api/container-types")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"40HC"}, decode[[]string](t, rec))
}

func TestRoutes(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	h := NewRouter(st, nil)

	rec := get(t, h, "/api/routes/MUENSTER/40HC")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[routesResponse](t, rec)
	assert.Equal(t, "MUENSTER", resp.Destination)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, 2, resp.TotalRoutes)
	require.Len(t, resp.Routes, 2)
	assert.Equal(t, 1, resp.Routes[0].Rank)
	assert.Equal(t, "ROTTERDAM", resp.Routes[0].POD)
	assert.Equal(t, "RAIL", resp.Routes[0].Mode)
	assert.InDelta(t, 2000, *resp.Routes[0].TotalRate, 0.001)
	assert.InDelta(t, 500, *resp.Routes[0].InlandRate, 0.001)
	assert.Equal(t, "HAMBURG", resp.Routes[1].POD)
}

func TestRoutes_NotFound(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)

	rec := get(t, NewRouter(st, nil), "/api/routes/LYON/20STD")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSurchargeRoute(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	h := NewRouter(st, nil)

	rec := get(t, h, "/api/hapag/destinations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"MUENSTER, NW, GERMANY"}, decode[[]string](t, rec))

	rec = get(t, h, "/api/hapag/route/MUENSTER,%20NW,%20GERMANY")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[surchargeResponse](t, rec)
	assert.Equal(t, "MUENSTER, NW, GERMANY", resp.Destination)
	assert.Equal(t, "BUSAN", resp.Route.From)
	assert.Equal(t, "HAMBURG", resp.Route.Via)

	require.NotNil(t, resp.Route.OceanFreight)
	assert.Equal(t, "1500", resp.Route.OceanFreight.Value20STD, "20STD quotes 40STD when the table has no 20STD column")
	assert.Equal(t, "1600", resp.Route.OceanFreight.Value40HC)

	lf := resp.Route.DestinationLandfreight
	require.NotNil(t, lf)
	assert.Equal(t, "EUR", lf.Curr)
	require.Len(t, lf.SubOptions, 2)
	assert.Equal(t, "-", lf.SubOptions[0].Value40)
	assert.Equal(t, "700", lf.SubOptions[0].Value40HC)

	require.Len(t, resp.Route.OtherCharges, 1)
	assert.Equal(t, "Terminal Handling Charge Dest.", resp.Route.OtherCharges[0].Description)
	assert.Equal(t, map[string]bool{"20STD": true, "40STD": true, "40HC": true}, resp.Route.AvailableContainers)
}

func TestSurchargeRoute_NotFound(t *testing.T) {
	st := newTestStore(t)
	h := NewRouter(st, nil)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/hapag/destinations").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/hapag/route/NOWHERE").Code)
}

func TestResolutions(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	h := NewRouter(st, nil)

	rec := get(t, h, "/api/resolutions?kind=wrong_country_rejected")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]model.ResolutionEvent](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, "ATHENS, AL, USA", events[0].Selected)

	rec = get(t, h, "/api/resolutions?kind=no_rates_available")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.ResolutionEvent](t, rec))

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/resolutions?limit=abc").Code)
}

type failingStore struct{ store.Store }

func (failingStore) ListDestinations(context.Context) ([]string, error) {
	return nil, errors.New("db down")
}

func (failingStore) ListRoutes(context.Context, string, string) ([]model.RankedRoute, error) {
	return nil, errors.New("db down")
}

func TestStoreErrors(t *testing.T) {
	h := NewRouter(failingStore{}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/destinations").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/routes/A/B").Code)
}

func TestNewRoutesResponse_Dedupes(t *testing.T) {
	resp := newRoutesResponse("D", "40HC", []model.RankedRoute{
		{POD: "B", TotalRate: ptr(20), CostRank: 1, Currency: "EUR"},
		{POD: "A", TotalRate: ptr(10), CostRank: 1, Currency: "EUR"},
		{POD: "C", TotalRate: ptr(30), CostRank: 2, Currency: "EUR"},
	})
	require.Len(t, resp.Routes, 2)
	assert.Equal(t, "A", resp.Routes[0].POD)
	assert.Equal(t, "EUR", resp.Currency)
}
