// Package admin implements the administrative JSON HTTP API from
// spec.md §6: add/remove/list/purge translation endpoints, plus the
// supplemental health and metrics endpoints SPEC_FULL.md adds. It is
// built on github.com/go-chi/chi/v5, the router the rest of the pack
// reaches for whenever a repo needs an HTTP control surface.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xlatefs/xlatefs/internal/store"
	"github.com/xlatefs/xlatefs/internal/xlog"
)

// Facade is the subset of *facade.Facade the admin router depends on,
// kept narrow so handler tests can supply a fake.
type Facade interface {
	AddTranslation(original, translated string) error
	RemoveTranslation(original string) error
	PurgeAll() error
	ListTranslations() ([]store.Translation, error)
}

type addRequest struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

type removeRequest struct {
	Original string `json:"original"`
}

// NewRouter builds the chi router for the admin API. metricsHandler may
// be nil, in which case /metrics serves promhttp.Handler() (the default
// prometheus registry).
func NewRouter(f Facade, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/add_translation", func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if req.Original == "" || req.Translated == "" {
			writeError(w, http.StatusBadRequest, errMissingField)
			return
		}
		if err := f.AddTranslation(req.Original, req.Translated); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "translation added"})
	})

	r.Post("/remove_translation", func(w http.ResponseWriter, r *http.Request) {
		var req removeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if req.Original == "" {
			writeError(w, http.StatusBadRequest, errMissingField)
			return
		}
		if err := f.RemoveTranslation(req.Original); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "translation removed"})
	})

	r.Post("/purge_all_translations", func(w http.ResponseWriter, r *http.Request) {
		if err := f.PurgeAll(); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "all translations purged"})
	})

	r.Get("/list_translations", func(w http.ResponseWriter, r *http.Request) {
		rows, err := f.ListTranslations()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		pairs := make([][2]string, 0, len(rows))
		for _, row := range rows {
			pairs = append(pairs, [2]string{row.Original, row.Translated})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"translations": pairs})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	log := xlog.Tagged("admin")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithField("method", r.Method).WithField("path", r.URL.Path).Debug("admin request")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type missingFieldError struct{}

func (missingFieldError) Error() string { return "missing required field" }

var errMissingField = missingFieldError{}
