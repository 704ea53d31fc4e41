package restservice

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Starts a new dump. Responds with 202 and the in-progress record.
func (r *RestAPI) createDump(w http.ResponseWriter, req *http.Request) {
	info, err := r.Dumps.CreateDump(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, info)
}

// Returns the status of the dump.
func (r *RestAPI) getDumpStatus(w http.ResponseWriter, req *http.Request) {
	uid := chi.URLParam(req, "uid")
	info, err := r.Dumps.DumpInfo(req.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
