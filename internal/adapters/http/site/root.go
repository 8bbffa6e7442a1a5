// Package site serves the embedded live leaderboard page.
package site

import (
	"context"
	"net/http"
)

// BoardPath is where the live board is mounted.
const BoardPath = "/board/"

// Register attaches the board and the root redirect to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle(BoardPath, http.StripPrefix(BoardPath, http.FileServer(FS())))
	mux.HandleFunc("/", NewRootHandler().HandleRoot)
}

// RootHandler redirects the bare root to the board.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / and 404s every other unmatched path.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, BoardPath, http.StatusFound)
}
