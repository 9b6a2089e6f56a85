// Package server serves the viewer frontend, the websocket feed and a small
// REST API over the input state.
package server

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/hub"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/store"
)

// Input is the input side the server reports on. *reader.Reader implements
// it.
type Input interface {
	hub.Session
	View(index int) (gamepad.View, error)
	Capabilities(index int) (gamepad.Capabilities, error)
	Mapping(guid mapping.GUID) (string, error)
}

type Options struct {
	Addr     string
	Frontend fs.FS

	// Store, when not nil, receives every mapping added through the server
	Store *store.Store

	// AllowedOrigins for cross origin API requests. Empty allows every origin.
	AllowedOrigins []string
}

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	input       Input
	session     session
	opts        Options
	httpServer  *http.Server
}

func New(h *hub.Hub, b *hub.Broadcaster, in Input, opts Options) *Server {
	return &Server{
		hub:         h,
		broadcaster: b,
		input:       in,
		session:     session{Input: in, store: opts.Store},
		opts:        opts,
	}
}

// Handler builds the HTTP handler with every route.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/gamepads", s.listGamepads).Methods(http.MethodGet)
	api.HandleFunc("/gamepads/{index:[0-9]+}/state", s.gamepadState).Methods(http.MethodGet)
	api.HandleFunc("/gamepads/{index:[0-9]+}/capabilities", s.gamepadCapabilities).Methods(http.MethodGet)
	api.HandleFunc("/players/{player:[0-9]+}/select", s.selectPlayer).Methods(http.MethodPost)
	api.HandleFunc("/mappings", s.addMapping).Methods(http.MethodPost)
	api.HandleFunc("/mappings/{guid}", s.getMapping).Methods(http.MethodGet)

	// WebSocket endpoint
	r.Handle("/ws", handleWebSocket(s.hub, s.broadcaster, s.session))

	// Static files (frontend)
	if s.opts.Frontend != nil {
		r.PathPrefix("/").Handler(minifier().Middleware(http.FileServer(http.FS(s.opts.Frontend))))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(r)
}

func minifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.Handler(),
	}

	log.Printf("HTTP server listening on %s", s.opts.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		log.Println("Shutting down HTTP server...")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
