package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/bitnetd/bitnetd/internal/config"
	"github.com/bitnetd/bitnetd/internal/gateway"
)

// Server is the bitnetd HTTP API server.
type Server struct {
	cfg  *config.Config
	http *http.Server
	gw   *gateway.Gateway
}

// New creates a Server around the given gateway.
func New(cfg *config.Config, gw *gateway.Gateway) *Server {
	s := &Server{
		cfg: cfg,
		gw:  gw,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: withLogging(withCORS(mux)),
	}

	return s
}

// Handler returns the server's root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start starts the server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Printf("bitnetd listening on %s", s.http.Addr)
	log.Printf("Model: %s", s.cfg.ModelPath)
	log.Printf("Executable: %s", s.cfg.ExecPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
