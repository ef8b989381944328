package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/franckalain/wastedetect/internal/database"
	"github.com/franckalain/wastedetect/internal/ml"
	"github.com/gorilla/websocket"
	logging "github.com/ipfs/go-log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

var log = logging.Logger("wastedetect")

// Options tunes the HTTP layer
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// StrictStatus reports application errors with their mapped status code
	// instead of 200.
	StrictStatus bool
	// MaxMemory is the part of a multipart body kept in memory; the rest
	// spills to temporary files.
	MaxMemory int64
	// StaticDir, when set, is served under /static/
	StaticDir string
}

type Server struct {
	model   ml.Model
	store   database.Store // nil when the document store is not configured
	opts    Options
	clients sync.Map // websocket connections by client id
	httpSrv *http.Server
}

// New wires the server. store may be nil, in which case persistence
// endpoints report the store as not initialized.
func New(model ml.Model, store database.Store, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = 32 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		model: model,
		store: store,
		opts:  opts,
	}
}

// Handler returns the routed HTTP handler with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /detect", s.handleDetect)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /records", s.handleRecords)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.opts.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.opts.StaticDir))
		mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
	}

	corsOpts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	// A literal "*" is not valid on credentialed responses, so any origin
	// is echoed back instead.
	if slices.Contains(s.opts.AllowedOrigins, "*") {
		corsOpts.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsOpts.AllowedOrigins = s.opts.AllowedOrigins
	}
	return cors.New(corsOpts).Handler(mux)
}

// Start serves on addr until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start(addr string) error {
	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal
	select {
	case err := <-errCh:
		return err
	case <-sigChan:
	}

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.closeClients()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) closeClients() {
	s.clients.Range(func(key, value any) bool {
		if conn, ok := value.(*websocket.Conn); ok {
			conn.Close()
		}
		s.clients.Delete(key)
		return true
	})
}
