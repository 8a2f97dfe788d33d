package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Scan         http.HandlerFunc
	SessionClose http.HandlerFunc
	SessionsOpen http.HandlerFunc
	Transactions http.HandlerFunc
	MirrorResync http.HandlerFunc
	DoorToggle   http.HandlerFunc
	DoorStatuses http.HandlerFunc
	Health       http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Scan != nil {
		mux.Handle("/scan", method(http.MethodPost, routes.Scan))
	}
	if routes.SessionClose != nil {
		mux.Handle("/sessions/close", method(http.MethodPost, routes.SessionClose))
	}
	if routes.SessionsOpen != nil {
		mux.Handle("/sessions/open", method(http.MethodGet, routes.SessionsOpen))
	}
	if routes.Transactions != nil {
		mux.Handle("/transactions", method(http.MethodGet, routes.Transactions))
	}
	if routes.MirrorResync != nil {
		mux.Handle("/mirror/resync", method(http.MethodPost, routes.MirrorResync))
	}
	if routes.DoorToggle != nil {
		mux.Handle("/doors/toggle", method(http.MethodPost, routes.DoorToggle))
	}
	if routes.DoorStatuses != nil {
		mux.Handle("/doors", method(http.MethodGet, routes.DoorStatuses))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
