package api

import (
	"net/http"

	"github.com/Nexo-Labs/SyncTionNotion/internal/auth"
	"github.com/gorilla/mux"
)

// SetupRoutes builds the router. authMiddleware may be nil to serve the API
// without authentication.
func SetupRoutes(formHandler *FormHandler, authMiddleware *auth.Middleware, allowedOrigin string) *mux.Router {
	r := mux.NewRouter()

	r.Use(CORSMiddleware(allowedOrigin))
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.HandleFunc("/healthz", Health).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	if authMiddleware != nil {
		v1.Use(authMiddleware.RequireAuth)
	}

	v1.HandleFunc("/forms/scratch", formHandler.Scratch).Methods("GET")
	v1.HandleFunc("/forms/load", formHandler.Load).Methods("POST")
	v1.HandleFunc("/forms/events", formHandler.OnChange).Methods("POST")
	v1.HandleFunc("/forms/send", formHandler.Send).Methods("POST")

	v1.HandleFunc("/databases/{databaseID}/templates", formHandler.Templates).Methods("GET")
	v1.HandleFunc("/databases/{databaseID}/search", formHandler.SearchPages).Methods("GET")

	v1.HandleFunc("/secret", formHandler.SaveSecret).Methods("PUT")
	v1.HandleFunc("/submissions", formHandler.Submissions).Methods("GET")

	// Preflight requests only need the CORS headers.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
