package handler

import (
	_ "embed"
	"net/http"
)

//go:embed web/index.html
var dashboardPage []byte

// Dashboard serves the static management page. All interaction happens
// client-side against the JSON API.
func (h *HTTPHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(dashboardPage)
}
