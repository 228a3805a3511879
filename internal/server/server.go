// Package server owns the HTTP lifecycle for the boost API: the REST
// endpoints, the swagger UI and the websocket timer stream all share one
// listener.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Server wraps an *http.Server with start and graceful-shutdown hooks. A
// graceful shutdown lets in-flight boost requests finish before timers are
// unloaded.
type Server struct {
	httpServer *http.Server
}

const (
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	// WriteTimeout does not apply to hijacked connections, so the
	// long-lived websocket stream is unaffected.
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

// normalizeAddr accepts either "8080" or ":8080" from the config.
func normalizeAddr(port string) string {
	if port == "" || strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Run starts serving on the given port and blocks until the listener stops.
func (s *Server) Run(port string, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              normalizeAddr(port),
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
