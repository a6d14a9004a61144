package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/memory"
	"github.com/joseph-ayodele/docrouter/internal/utils"
)

// MaxBodyBytes caps a POST /v1/process body.
const MaxBodyBytes = 8 << 20

// Exporter renders a thread as a spreadsheet.
type Exporter interface {
	ExportThreadXLSX(ctx context.Context, threadID string) ([]byte, error)
}

type HTTPConfig struct {
	Processor Processor
	Store     memory.Store
	Exporter  Exporter
	Gatherer  prometheus.Gatherer
	Timeout   time.Duration
	Logger    *slog.Logger
}

type httpAPI struct {
	cfg    HTTPConfig
	logger *slog.Logger
}

type processRequest struct {
	Content  string `json:"content"`
	ThreadID string `json:"thread_id"`
}

// NewHTTPHandler builds the REST surface: health, metrics, processing, and thread reads.
func NewHTTPHandler(cfg HTTPConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	api := &httpAPI{cfg: cfg, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(api.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/process", api.process)
		r.Get("/threads", api.threads)
		r.Get("/threads/{threadID}", api.threadContext)
		r.Get("/threads/{threadID}/fields", api.lastFields)
		if cfg.Exporter != nil {
			r.Get("/threads/{threadID}/export.xlsx", api.export)
		}
	})
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), id)))
	})
}

func (a *httpAPI) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("http.request",
			"req_id", common.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (a *httpAPI) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object with a content field")
		return
	}
	req.ThreadID = strings.TrimSpace(req.ThreadID)
	v := common.NewValidator().
		Field("content", req.Content, common.Required).
		Field("thread_id", req.ThreadID, common.MaxLength(MaxThreadIDLength))
	if v.HasErrors() {
		writeError(w, http.StatusBadRequest, v.ErrorMessage())
		return
	}

	res := a.cfg.Processor.Process(r.Context(), req.Content, req.ThreadID)
	writeJSON(w, http.StatusOK, res)
}

func (a *httpAPI) threads(w http.ResponseWriter, r *http.Request) {
	ids, err := a.cfg.Store.Threads(r.Context())
	if err != nil {
		a.logger.Error("failed to list threads", "error", err)
		writeError(w, http.StatusInternalServerError, "interaction store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": ids})
}

func (a *httpAPI) threadContext(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	recs, err := a.cfg.Store.Context(r.Context(), threadID)
	if err != nil {
		a.logger.Error("failed to read thread context", "thread_id", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "interaction store unavailable")
		return
	}
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, utils.RecordToMap(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"thread_id": threadID, "records": out})
}

func (a *httpAPI) lastFields(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	fields, err := a.cfg.Store.LastExtractedFields(r.Context(), threadID)
	if err != nil {
		a.logger.Error("failed to read last fields", "thread_id", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "interaction store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func (a *httpAPI) export(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	data, err := a.cfg.Exporter.ExportThreadXLSX(r.Context(), threadID)
	if err != nil {
		a.logger.Error("failed to export thread", "thread_id", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment("thread-"+threadID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
