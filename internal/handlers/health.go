package handlers

import "net/http"

func Healthz(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusOK, "OK")
}
