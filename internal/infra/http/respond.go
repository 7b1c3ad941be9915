package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Spok95/alumtrack/internal/domain"
	"github.com/Spok95/alumtrack/internal/planning"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError переводит ошибку в HTTP-ответ; неизвестные дают 500 с записью в лог.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeDetail(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, planning.ErrInvalidPeriod):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		a.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}
