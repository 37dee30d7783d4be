package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"musiccrs/internal/agent"
	"musiccrs/internal/catalog"
	"musiccrs/internal/playlist"
)

// Handlers holds the HTTP surface dependencies.
type Handlers struct {
	agent     *agent.Agent
	catalog   *catalog.Catalog
	playlists *playlist.Store
}

// New creates the HTTP handlers.
func New(a *agent.Agent, cat *catalog.Catalog, playlists *playlist.Store) *Handlers {
	return &Handlers{agent: a, catalog: cat, playlists: playlists}
}

// RegisterRoutes wires all routes onto the router. coversDir is served
// statically when covers are enabled.
func (h *Handlers) RegisterRoutes(router *mux.Router, coversDir string, coversEnabled bool) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost).Name("chat")
	api.HandleFunc("/state", h.State).Methods(http.MethodGet).Name("state")

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet).Name("health")
	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet).Name("healthz")
	router.HandleFunc("/livez", h.Healthz).Methods(http.MethodGet).Name("livez")
	router.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet).Name("readyz")
	router.HandleFunc("/version", h.Version).Methods(http.MethodGet).Name("version")

	if coversEnabled {
		router.PathPrefix("/covers/").Handler(
			http.StripPrefix("/covers/", http.FileServer(http.Dir(coversDir)))).Name("covers")
	}
}
