package accounts

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/kilianp07/chargeplan/core/advice"
	"github.com/kilianp07/chargeplan/core/format"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/monitoring"
	"github.com/kilianp07/chargeplan/core/scheduler"
)

// TimerResponse is the recharge timer of one account.
type TimerResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Seconds int    `json:"seconds"`
	HMS     string `json:"hms"`
}

// SummaryResponse is the fleet overview.
type SummaryResponse struct {
	scheduler.Summary
	AllFullHMS  string `json:"all_full_hms"`
	Cooldown    int    `json:"cooldown"`
	ImagePixels int    `json:"image_pixels"`
}

// PlanResponse is an equalization plan with its advice record id.
type PlanResponse struct {
	ID            string              `json:"id"`
	TargetSeconds int                 `json:"target_seconds"`
	TargetHMS     string              `json:"target_hms"`
	Optimal       bool                `json:"optimal"`
	Rows          []scheduler.PlanRow `json:"rows"`
}

// EstimateResponse is the time needed to paint a number of pixels.
type EstimateResponse struct {
	Pixels    int    `json:"pixels"`
	Seconds   int    `json:"seconds"`
	HMS       string `json:"hms"`
	Unbounded bool   `json:"unbounded"`
}

func (h *Handler) timers(w http.ResponseWriter, _ *http.Request) {
	sched := h.sess.Scheduler()
	accs := h.sess.List()
	out := make([]TimerResponse, len(accs))
	for i, a := range accs {
		secs := sched.TimeToFull(a)
		out[i] = TimerResponse{ID: a.ID, Name: a.Name, Seconds: secs, HMS: format.Seconds(secs)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) summary(w http.ResponseWriter, _ *http.Request) {
	sum := h.sess.Scheduler().Summary(h.sess.List())
	writeJSON(w, http.StatusOK, SummaryResponse{
		Summary:     sum,
		AllFullHMS:  format.Seconds(sum.AllFullSeconds),
		Cooldown:    h.sess.Cooldown(),
		ImagePixels: h.sess.ImageStats().Pixels,
	})
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	p := h.sess.Scheduler().Plan(h.sess.List())
	rec := advice.NewRecord(p, h.sess.Cooldown(), h.now())
	if h.store != nil {
		if err := h.store.Append(r.Context(), rec); err != nil {
			h.log.Warnf("append advice record: %v", err)
			monitoring.CaptureException(err, map[string]string{"component": "advice"})
		}
	}
	if err := coremetrics.RecordPlan(h.sink, coremetrics.PlanEvent{ID: rec.ID, Time: rec.Timestamp, Plan: p}); err != nil {
		h.log.Warnf("record plan: %v", err)
	}
	h.log.Debugw("plan computed", map[string]any{
		"advice_id":      rec.ID,
		"target_seconds": p.TargetSeconds,
		"actions":        len(p.Actions()),
	})
	writeJSON(w, http.StatusOK, PlanResponse{
		ID:            rec.ID,
		TargetSeconds: p.TargetSeconds,
		TargetHMS:     format.Seconds(p.TargetSeconds),
		Optimal:       p.Optimal(),
		Rows:          p.Rows,
	})
}

// estimate uses the pixels query parameter, or the cached image count when
// it is absent.
func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	pixels := h.sess.ImageStats().Pixels
	if v := r.URL.Query().Get("pixels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "pixels must be a non-negative integer", http.StatusBadRequest)
			return
		}
		pixels = n
	}
	est := h.sess.Scheduler().Estimate(pixels, h.sess.List())
	if err := coremetrics.RecordEstimate(h.sink, coremetrics.EstimateEvent{Time: h.now(), Pixels: pixels, Estimate: est}); err != nil {
		h.log.Warnf("record estimate: %v", err)
	}
	writeJSON(w, http.StatusOK, newEstimateResponse(pixels, est))
}

func newEstimateResponse(pixels int, est scheduler.Estimate) EstimateResponse {
	res := EstimateResponse{Pixels: pixels, Seconds: est.Seconds, Unbounded: est.Unbounded, HMS: est.String()}
	if !est.Unbounded {
		res.HMS = format.Seconds(est.Seconds)
	}
	return res
}

// image accepts either a multipart form with a "file" field or the raw image
// as request body. A failed decode leaves the cached count untouched.
func (h *Handler) image(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	var src io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		f, _, err := r.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "missing file field: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer func() { _ = f.Close() }()
		src = f
	}
	res, err := h.counter.Count(src)
	if err != nil {
		h.log.Warnf("image rejected: %v", err)
		h.writeError(w, err)
		return
	}
	h.sess.SetImageStats(model.ImageStats{Pixels: res.Pixels})
	h.log.Infof("image counted: %s %dx%d, %d pixels", res.Format, res.Width, res.Height, res.Pixels)
	writeJSON(w, http.StatusOK, res)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
