package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/meshcast/core/dispatch/logging"
)

// LogsPath is where NewLogHandler is usually mounted.
const LogsPath = "/api/dispatch/logs"

// QueryFunc answers dispatch log queries.
type QueryFunc func(ctx context.Context, q logging.LogQuery) ([]logging.LogRecord, error)

// NewLogHandler returns an HTTP handler exposing dispatch logs via GET.
// Supported filters: start and end (RFC 3339), channel, status and run_id.
// Requests must include an Authorization header with "Bearer <token>" when
// token is non-empty.
func NewLogHandler(query QueryFunc, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		v := r.URL.Query()
		q := logging.LogQuery{
			ChannelKey: v.Get("channel"),
			Status:     v.Get("status"),
			RunID:      v.Get("run_id"),
		}
		for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
			s := v.Get(name)
			if s == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, "bad "+name+": "+err.Error(), http.StatusBadRequest)
				return
			}
			*dst = t
		}
		records, err := query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []logging.LogRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
