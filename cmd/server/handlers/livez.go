package handlers

import (
	"fmt"
	"net/http"
)

// LivezHandler handles the /livez endpoint. It does not touch the database.
func LivezHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}
