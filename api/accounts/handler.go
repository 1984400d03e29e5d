// Package accounts exposes the session accounts and the calculations built on
// them over JSON HTTP endpoints.
package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/chargeplan/core/advice"
	"github.com/kilianp07/chargeplan/core/imagestats"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/monitoring"
	"github.com/kilianp07/chargeplan/core/session"
	"github.com/kilianp07/chargeplan/infra/logger"
)

// DefaultMaxUploadBytes bounds the image upload body.
const DefaultMaxUploadBytes = 32 << 20

// Handler serves the account, timer, plan, estimate and image endpoints of a
// single session.
type Handler struct {
	sess    *session.Session
	store   advice.Store
	sink    coremetrics.MetricsSink
	counter imagestats.Counter
	maxBody int64
	log     logger.Logger
	now     func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithAdviceStore appends every computed plan to store.
func WithAdviceStore(store advice.Store) Option {
	return func(h *Handler) { h.store = store }
}

// WithSink forwards plans and estimates to sink.
func WithSink(sink coremetrics.MetricsSink) Option {
	return func(h *Handler) { h.sink = sink }
}

// WithCounter sets the image decoder limits.
func WithCounter(c imagestats.Counter) Option {
	return func(h *Handler) { h.counter = c }
}

// WithMaxUploadBytes bounds the image upload body.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) { h.maxBody = n }
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithClock overrides the time source used for advice records.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New creates a Handler bound to sess.
func New(sess *session.Session, opts ...Option) *Handler {
	h := &Handler{
		sess:    sess,
		sink:    coremetrics.NopSink{},
		maxBody: DefaultMaxUploadBytes,
		now:     time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	h.log = logger.OrNop(h.log)
	if h.sink == nil {
		h.sink = coremetrics.NopSink{}
	}
	return h
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/accounts", h.list)
	mux.HandleFunc("POST /api/accounts", h.create)
	mux.HandleFunc("PUT /api/accounts/{id}", h.update)
	mux.HandleFunc("DELETE /api/accounts/{id}", h.remove)
	mux.HandleFunc("GET /api/timers", h.timers)
	mux.HandleFunc("GET /api/summary", h.summary)
	mux.HandleFunc("GET /api/plan", h.plan)
	mux.HandleFunc("GET /api/estimate", h.estimate)
	mux.HandleFunc("POST /api/image", h.image)
}

// ServeHTTP serves the endpoints on a private mux.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	h.Register(mux)
	mux.ServeHTTP(w, r)
}

type createRequest struct {
	Name    string `json:"name"`
	Current *int   `json:"current"`
	Max     *int   `json:"max"`
}

type updateRequest struct {
	Current *int `json:"current"`
	Max     *int `json:"max"`
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.List())
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Current == nil || req.Max == nil {
		http.Error(w, "current and max are required", http.StatusBadRequest)
		return
	}
	acc, err := h.sess.Add(req.Name, *req.Current, *req.Max)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Infof("account %d added", acc.ID)
	writeJSON(w, http.StatusCreated, acc)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Current == nil || req.Max == nil {
		http.Error(w, "current and max are required", http.StatusBadRequest)
		return
	}
	if err := h.sess.Update(id, *req.Current, *req.Max); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.sess.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeError maps domain errors to status codes. Anything unexpected is
// reported to the monitor.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidAccount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, imagestats.ErrImageTooLarge), tooLarge(err):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, imagestats.ErrInvalidImage):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Errorf("request failed: %v", err)
		monitoring.CaptureException(err, map[string]string{"component": "api"})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
