// Package callback runs the loopback HTTP server that receives the
// auth redirect during sign-in.
package callback

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const closePage = `<!doctype html>
<html>
<head><title>tubenote</title></head>
<body>
<p>Sign-in received. You can close this tab and return to tubenote.</p>
</body>
</html>
`

const errorPage = `<!doctype html>
<html>
<head><title>tubenote</title></head>
<body>
<p>Sign-in failed: %s</p>
</body>
</html>
`

// Handler consumes a token or device code delivered by the auth redirect.
type Handler func(ctx context.Context, token, code string) error

// Server listens on an ephemeral loopback port for the auth redirect.
type Server struct {
	http     *http.Server
	listener net.Listener
	logger   *slog.Logger
	handle   Handler

	once sync.Once
	done chan error
}

// NewServer binds a loopback listener and prepares the redirect route.
func NewServer(handle Handler, logger *slog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("bind callback listener: %w", err)
	}

	s := &Server{
		listener: listener,
		logger:   logger,
		handle:   handle,
		done:     make(chan error, 1),
	}

	r := chi.NewRouter()
	r.Get("/callback", s.serveCallback)

	// No write timeout: a code delivery polls for authorization inside the
	// handler and may legitimately take a while.
	s.http = &http.Server{
		Handler:     r,
		ReadTimeout: 5 * time.Second,
	}
	return s, nil
}

// URL returns the redirect target the auth page should send the browser to.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s/callback", s.listener.Addr().String())
}

// Serve blocks until the server is shut down.
func (s *Server) Serve() error {
	s.logger.Info("callback server listening", "addr", s.listener.Addr().String())
	err := s.http.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Done yields the outcome of the first credential delivery.
func (s *Server) Done() <-chan error {
	return s.done
}

// Shutdown stops the server, releasing the loopback port.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("callback server shutting down")
	return s.http.Shutdown(ctx)
}

func (s *Server) serveCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	code := r.URL.Query().Get("code")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if token == "" && code == "" {
		s.logger.Warn("callback request carried no credential")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, errorPage, "the redirect carried no token or code")
		return
	}

	// Detach from the request context: token installation and validation
	// must outlive the response.
	err := s.handle(context.WithoutCancel(r.Context()), token, code)
	if err != nil {
		s.logger.Error("callback handling failed", "error", err)
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, errorPage, "could not complete sign-in")
	} else {
		fmt.Fprint(w, closePage)
	}

	// Later redirects are ignored; the first delivery decides the outcome.
	s.once.Do(func() {
		s.done <- err
	})
}
