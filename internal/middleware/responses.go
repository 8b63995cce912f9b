package middleware

import (
	"encoding/json"
	"net/http"
)

// AlertEvent is the htmx event name the page listens on for toast alerts.
const AlertEvent = "collection:alert"

type errorResponse struct {
	Error string `json:"error"`
}

// WriteError answers htmx requests with a JSON envelope plus an alert
// trigger, and plain requests with a text error.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsHTMX(r.Context()) {
		TriggerAlert(w, "error", msg)
		w.Header().Set("HX-Reswap", "none")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
		return
	}
	http.Error(w, msg, code)
}

// TriggerAlert sets HX-Trigger so the page shows a toast.
func TriggerAlert(w http.ResponseWriter, level, msg string) {
	Trigger(w, AlertEvent, map[string]string{"level": level, "message": msg})
}

// Trigger merges an event into the HX-Trigger response header.
func Trigger(w http.ResponseWriter, event string, detail any) {
	events := map[string]any{}
	if existing := w.Header().Get("HX-Trigger"); existing != "" {
		_ = json.Unmarshal([]byte(existing), &events)
	}
	events[event] = detail
	if b, err := json.Marshal(events); err == nil {
		w.Header().Set("HX-Trigger", string(b))
	}
}
