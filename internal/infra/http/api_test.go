package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/alumtrack/internal/domain/allocation"
	"github.com/Spok95/alumtrack/internal/domain/purchases"
	"github.com/Spok95/alumtrack/internal/domain/targets"
	"github.com/Spok95/alumtrack/internal/planning"
)

type memPurchases struct {
	items  []purchases.Purchase
	nextID int64
	err    error
}

func (m *memPurchases) Create(_ context.Context, in purchases.Input) (*purchases.Purchase, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	p := purchases.Purchase{ID: m.nextID}
	p.Apply(in)
	m.items = append(m.items, p)
	return &p, nil
}

func (m *memPurchases) CreateMany(ctx context.Context, ins []purchases.Input) (int64, error) {
	for _, in := range ins {
		if _, err := m.Create(ctx, in); err != nil {
			return 0, err
		}
	}
	return int64(len(ins)), nil
}

func (m *memPurchases) List(context.Context) ([]purchases.Purchase, error) { return m.items, m.err }

func (m *memPurchases) ListInStock(context.Context) ([]purchases.Purchase, error) {
	var out []purchases.Purchase
	for _, p := range m.items {
		if p.RemainingKg > 0 {
			out = append(out, p)
		}
	}
	return out, m.err
}

func (m *memPurchases) Update(_ context.Context, id int64, in purchases.Input) (*purchases.Purchase, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Apply(in)
			p := m.items[i]
			return &p, nil
		}
	}
	return nil, purchases.ErrNotFound
}

func (m *memPurchases) Delete(_ context.Context, id int64) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return purchases.ErrNotFound
}

type memTargets struct {
	items      []targets.Target
	nextID     int64
	lastFilter targets.Filter
}

func (m *memTargets) Create(_ context.Context, in targets.Input) (*targets.Target, error) {
	m.nextID++
	t := targets.Target{ID: m.nextID}
	t.Apply(in)
	m.items = append(m.items, t)
	return &t, nil
}

func (m *memTargets) List(_ context.Context, f targets.Filter) ([]targets.Target, error) {
	m.lastFilter = f
	var out []targets.Target
	for _, t := range m.items {
		if f.Year != nil && t.Year != *f.Year {
			continue
		}
		if f.Month != nil && t.Month != *f.Month {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memTargets) Update(_ context.Context, id int64, in targets.Input) (*targets.Target, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Apply(in)
			t := m.items[i]
			return &t, nil
		}
	}
	return nil, targets.ErrNotFound
}

func (m *memTargets) Delete(_ context.Context, id int64) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return targets.ErrNotFound
}

type stubPlanner struct {
	res  allocation.Result
	err  error
	seen []planning.Period
}

func (s *stubPlanner) Optimize(_ context.Context, p planning.Period) (allocation.Result, error) {
	s.seen = append(s.seen, p)
	if err := p.Validate(); err != nil {
		return allocation.Result{}, err
	}
	return s.res, s.err
}

type fixture struct {
	purchases *memPurchases
	targets   *memTargets
	planner   *stubPlanner
	handler   http.Handler
}

func newFixture() *fixture {
	f := &fixture{purchases: &memPurchases{}, targets: &memTargets{}, planner: &stubPlanner{}}
	f.handler = NewHandler(true, Deps{
		Purchases: f.purchases,
		Targets:   f.targets,
		Planner:   f.planner,
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateAndListPurchases(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/purchases", map[string]any{
		"alloy_type":    "A356",
		"purity":        99.7,
		"quantity_kg":   1200,
		"price_per_kg":  2.35,
		"purchase_date": "2025-03-14",
		"supplier":      "Rusal",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decodeBody[map[string]any](t, rec)
	assert.Equal(t, 1.0, created["id"])
	assert.Equal(t, 1200.0, created["remaining_quantity_kg"])
	assert.Equal(t, "2025-03-14", created["purchase_date"])
	assert.Nil(t, created["notes"])

	rec = f.do(t, http.MethodGet, "/purchases", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "A356", list[0]["alloy_type"])
}

func TestListPurchasesEmptyIsArray(t *testing.T) {
	rec := newFixture().do(t, http.MethodGet, "/purchases", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestCreatePurchaseValidation(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/purchases", map[string]any{
		"alloy_type":    "A356",
		"quantity_kg":   -5,
		"price_per_kg":  2,
		"purchase_date": "2025-03-14",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody[map[string]string](t, rec)["detail"], "quantity_kg")

	rec = f.do(t, http.MethodPost, "/purchases", map[string]any{"alloy_type": "A356", "quantity_kg": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	f.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusUnprocessableEntity, raw.Code)

	assert.Empty(t, f.purchases.items)
}

func TestUpdatePurchaseResetsRemaining(t *testing.T) {
	f := newFixture()
	f.purchases.items = []purchases.Purchase{{ID: 4, AlloyType: "A356", QuantityKg: 100, RemainingKg: 30}}

	rec := f.do(t, http.MethodPut, "/purchases/4", map[string]any{
		"alloy_type":    "ADC12",
		"purity":        98,
		"quantity_kg":   250,
		"price_per_kg":  1.8,
		"purchase_date": "2025-04-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "ADC12", got["alloy_type"])
	assert.Equal(t, 250.0, got["remaining_quantity_kg"])

	rec = f.do(t, http.MethodPut, "/purchases/99", map[string]any{
		"alloy_type": "x", "quantity_kg": 1, "price_per_kg": 1, "purchase_date": "2025-04-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Purchase not found", decodeBody[map[string]string](t, rec)["detail"])
}

func TestDeletePurchase(t *testing.T) {
	f := newFixture()
	f.purchases.items = []purchases.Purchase{{ID: 1}}

	rec := f.do(t, http.MethodDelete, "/purchases/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/purchases/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/purchases/abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func upload(t *testing.T, h http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/purchases/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadPurchases(t *testing.T) {
	f := newFixture()
	csv := "alloy_type,purity,quantity_kg,price_per_kg,purchase_date\n" +
		"A356,99.7,1200,2.35,2025-03-14\n" +
		"ADC12,98,500,1.9,2025-03-20\n"

	rec := upload(t, f.handler, "march.csv", []byte(csv))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"ok","rows_imported":2}`, rec.Body.String())
	require.Len(t, f.purchases.items, 2)
	assert.Equal(t, 500.0, f.purchases.items[1].RemainingKg)
}

func TestUploadPurchasesRejectsUnknownFormat(t *testing.T) {
	f := newFixture()

	rec := upload(t, f.handler, "march.pdf", []byte("%PDF"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File must be CSV or Excel", decodeBody[map[string]string](t, rec)["detail"])
}

func TestUploadPurchasesBadRowStoresNothing(t *testing.T) {
	f := newFixture()
	csv := "alloy_type,purity,quantity_kg,price_per_kg,purchase_date\n" +
		"A356,99.7,1200,2.35,2025-03-14\n" +
		"ADC12,98,lots,1.9,2025-03-20\n"

	rec := upload(t, f.handler, "march.csv", []byte(csv))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "row 3")
	assert.Empty(t, f.purchases.items)
}

func TestSalesTargetsCRUD(t *testing.T) {
	f := newFixture()

	for _, body := range []map[string]any{
		{"alloy_type": "A356", "target_quantity_kg": 100, "month": 3, "year": 2025},
		{"alloy_type": "A356", "target_quantity_kg": 50, "month": 4, "year": 2025},
	} {
		rec := f.do(t, http.MethodPost, "/sales-targets", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, "/sales-targets?year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 100.0, list[0]["target_quantity_kg"])
	require.NotNil(t, f.targets.lastFilter.Month)
	assert.Equal(t, 3, *f.targets.lastFilter.Month)

	rec = f.do(t, http.MethodGet, "/sales-targets", nil)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 2)
	assert.Nil(t, f.targets.lastFilter.Year)

	rec = f.do(t, http.MethodPut, "/sales-targets/2", map[string]any{
		"alloy_type": "ADC12", "target_quantity_kg": 70, "month": 5, "year": 2025,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADC12", decodeBody[map[string]any](t, rec)["alloy_type"])

	rec = f.do(t, http.MethodPut, "/sales-targets/42", map[string]any{
		"alloy_type": "ADC12", "target_quantity_kg": 70, "month": 5, "year": 2025,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Sales target not found", decodeBody[map[string]string](t, rec)["detail"])

	rec = f.do(t, http.MethodPost, "/sales-targets", map[string]any{
		"alloy_type": "A356", "target_quantity_kg": 1, "month": 13, "year": 2025,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodDelete, "/sales-targets/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodDelete, "/sales-targets/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/sales-targets?year=twenty", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInventorySummary(t *testing.T) {
	f := newFixture()
	f.purchases.items = []purchases.Purchase{
		{ID: 1, AlloyType: "ADC12", PricePerKg: 2, RemainingKg: 100},
		{ID: 2, AlloyType: "A356", PricePerKg: 3, RemainingKg: 10},
		{ID: 3, AlloyType: "A356", PricePerKg: 3, RemainingKg: 0},
	}

	rec := f.do(t, http.MethodGet, "/inventory/summary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"total_inventory_kg": 110,
		"total_inventory_value": 230,
		"by_alloy": [
			{"alloy_type": "A356", "quantity_kg": 10, "value": 30},
			{"alloy_type": "ADC12", "quantity_kg": 100, "value": 200}
		]
	}`, rec.Body.String())
}

func TestOptimize(t *testing.T) {
	f := newFixture()
	f.planner.res = allocation.Result{
		Steps: []allocation.Step{
			{Grade: "steel", LotID: 2, Quantity: 50, UnitCost: 3, Cost: 150},
			{Grade: "steel", LotID: 1, Quantity: 50, UnitCost: 5, Cost: 250},
		},
		TotalCost: 400,
	}

	rec := f.do(t, http.MethodGet, "/optimize?year=2025&month=3", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []planning.Period{{Year: 2025, Month: 3}}, f.planner.seen)
	assert.JSONEq(t, `{
		"optimal_mix": [
			{"alloy_type": "steel", "purchase_id": 2, "quantity_used_kg": 50, "price_per_kg": 3, "cost": 150},
			{"alloy_type": "steel", "purchase_id": 1, "quantity_used_kg": 50, "price_per_kg": 5, "cost": 250}
		],
		"to_buy": [],
		"total_cost_for_targets": 400
	}`, rec.Body.String())
}

func TestOptimizeQueryErrors(t *testing.T) {
	f := newFixture()

	for _, target := range []string{"/optimize", "/optimize?year=2025", "/optimize?year=2025&month=13", "/optimize?year=x&month=1"} {
		rec := f.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, target)
	}
}

func TestOptimizeStorageError(t *testing.T) {
	f := newFixture()
	f.planner.err = errors.New("db down")

	rec := f.do(t, http.MethodGet, "/optimize?year=2025&month=3", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeBody[map[string]string](t, rec)["detail"])
}

func TestOptimizeExport(t *testing.T) {
	f := newFixture()
	f.planner.res = allocation.Result{Shortfalls: []allocation.Shortfall{{Grade: "copper", Missing: 20}}}

	rec := f.do(t, http.MethodGet, "/optimize/export?year=2025&month=3", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "plan_2025-03.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodOptions, "/purchases", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
