package advice

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	coreadvice "github.com/kilianp07/chargeplan/core/advice"
)

// NewLogHandler returns an HTTP handler exposing the advice log via
// GET /api/advice/logs. Supported filters: start and end (RFC3339),
// account_id, actions_only and limit.
func NewLogHandler(store coreadvice.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []coreadvice.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

type queryError string

func (e queryError) Error() string { return string(e) }

func parseQuery(r *http.Request) (coreadvice.Query, error) {
	v := r.URL.Query()
	q := coreadvice.Query{}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, queryError("invalid start: " + err.Error())
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, queryError("invalid end: " + err.Error())
		}
		q.End = t
	}
	if s := v.Get("account_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return q, queryError("invalid account_id")
		}
		q.AccountID = id
	}
	if s := v.Get("actions_only"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, queryError("invalid actions_only")
		}
		q.ActionsOnly = b
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, queryError("invalid limit")
		}
		q.Limit = n
	}
	return q, nil
}
