package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Spok95/alumtrack/internal/domain"
	"github.com/Spok95/alumtrack/internal/domain/allocation"
	"github.com/Spok95/alumtrack/internal/domain/inventory"
	"github.com/Spok95/alumtrack/internal/domain/purchases"
	"github.com/Spok95/alumtrack/internal/domain/targets"
	"github.com/Spok95/alumtrack/internal/export"
	"github.com/Spok95/alumtrack/internal/importer"
	"github.com/Spok95/alumtrack/internal/infra/metrics"
	"github.com/Spok95/alumtrack/internal/planning"
)

const maxUploadBytes = 32 << 20

type PurchaseStore interface {
	Create(ctx context.Context, in purchases.Input) (*purchases.Purchase, error)
	CreateMany(ctx context.Context, ins []purchases.Input) (int64, error)
	List(ctx context.Context) ([]purchases.Purchase, error)
	ListInStock(ctx context.Context) ([]purchases.Purchase, error)
	Update(ctx context.Context, id int64, in purchases.Input) (*purchases.Purchase, error)
	Delete(ctx context.Context, id int64) error
}

type TargetStore interface {
	Create(ctx context.Context, in targets.Input) (*targets.Target, error)
	List(ctx context.Context, f targets.Filter) ([]targets.Target, error)
	Update(ctx context.Context, id int64, in targets.Input) (*targets.Target, error)
	Delete(ctx context.Context, id int64) error
}

type Planner interface {
	Optimize(ctx context.Context, p planning.Period) (allocation.Result, error)
}

type api struct{ Deps }

func invalid(field, reason string) error { return domain.Invalid(field, reason) }

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return invalid("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("id", "must be a positive integer")
	}
	return id, nil
}

// queryInt читает необязательный целый параметр; nil, если параметра нет.
func queryInt(r *http.Request, name string) (*int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, invalid(name, "must be an integer")
	}
	return &v, nil
}

func queryPeriod(r *http.Request) (planning.Period, error) {
	y, err := queryInt(r, "year")
	if err != nil {
		return planning.Period{}, err
	}
	m, err := queryInt(r, "month")
	if err != nil {
		return planning.Period{}, err
	}
	if y == nil || m == nil {
		return planning.Period{}, invalid("year/month", "both are required")
	}
	p := planning.Period{Year: *y, Month: *m}
	return p, p.Validate()
}

/* Purchases */

func (a *api) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	p, err := a.Purchases.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchase(*p))
}

func (a *api) listPurchases(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Purchases.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]purchaseResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPurchase(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) uploadPurchases(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	ins, err := importer.Parse(hdr.Filename, data)
	if err != nil {
		if errors.Is(err, importer.ErrUnsupportedFormat) {
			writeDetail(w, http.StatusBadRequest, "File must be CSV or Excel")
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	n, err := a.Purchases.CreateMany(r.Context(), ins)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	metrics.PurchasesImported.WithLabelValues("http").Add(float64(n))
	a.Log.Info("purchases imported", "file", hdr.Filename, "rows", n)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows_imported": n})
}

func (a *api) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req purchaseRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	p, err := a.Purchases.Update(r.Context(), id, in)
	if errors.Is(err, purchases.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Purchase not found")
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchase(*p))
}

func (a *api) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	err = a.Purchases.Delete(r.Context(), id)
	if errors.Is(err, purchases.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

/* Sales targets */

func (a *api) createTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.Targets.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTarget(*t))
}

func (a *api) listTargets(w http.ResponseWriter, r *http.Request) {
	var (
		f   targets.Filter
		err error
	)
	if f.Year, err = queryInt(r, "year"); err != nil {
		a.writeError(w, r, err)
		return
	}
	if f.Month, err = queryInt(r, "month"); err != nil {
		a.writeError(w, r, err)
		return
	}
	ts, err := a.Targets.List(r.Context(), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]targetResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTarget(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) updateTarget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req targetRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.Targets.Update(r.Context(), id, in)
	if errors.Is(err, targets.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Sales target not found")
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTarget(*t))
}

func (a *api) deleteTarget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	err = a.Targets.Delete(r.Context(), id)
	if errors.Is(err, targets.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

/* Inventory */

func (a *api) inventorySummary(w http.ResponseWriter, r *http.Request) {
	stock, err := a.Purchases.ListInStock(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(inventory.Summarize(stock)))
}

/* Optimization */

func (a *api) optimize(w http.ResponseWriter, r *http.Request) {
	p, err := queryPeriod(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.Planner.Optimize(r.Context(), p)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOptimize(res))
}

func (a *api) optimizeExport(w http.ResponseWriter, r *http.Request) {
	p, err := queryPeriod(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.Planner.Optimize(r.Context(), p)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	data, err := export.PlanXLSX(p.String(), res)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="plan_%s.xlsx"`, p.String()))
	_, _ = w.Write(data)
}
