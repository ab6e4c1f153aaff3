package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/meetstats/internal/rest"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Exports
	r.HandleFunc("/api/exports", deps.ExportHandler.StartExport).Methods("POST")
	r.HandleFunc("/api/exports/{id}", deps.ExportHandler.GetExport).Methods("GET")
	r.HandleFunc("/api/exports/{id}/file", deps.ExportHandler.DownloadExport).Methods("GET")
	r.HandleFunc("/api/report", deps.ExportHandler.GetReport).Queries("from", "{from}", "to", "{to}").Methods("GET")

	// Stored events
	if deps.EventHandler != nil {
		r.HandleFunc("/api/events", deps.EventHandler.GetEvents).Queries("from", "{from}", "to", "{to}").Methods("GET")
		r.HandleFunc("/api/events", deps.EventHandler.DeleteEvents).Methods("DELETE")
	}

	r.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "source": deps.CalendarProvider.Type()})
	}).Methods("GET")
}
