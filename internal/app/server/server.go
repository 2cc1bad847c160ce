package server

import (
	"context"
	"net/http"
	"time"

	"github.com/niveshbansal07/NB-downloader-Backend/internal/config"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/pkg/log"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/service"
	"github.com/pkg/errors"
)

type Server struct {
	conf *config.Config

	handler *service.HTTPHandler
}

func New(conf *config.Config, handler *service.HTTPHandler) *Server {
	return &Server{
		conf:    conf,
		handler: handler,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully so that
// in-flight downloads can finish streaming.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handler.Root)
	mux.HandleFunc("/preview", s.handler.Preview)
	mux.HandleFunc("/download", s.handler.Download)
	mux.HandleFunc("/health", s.handler.Health)

	srv := &http.Server{
		Addr:        s.conf.Server.Addr,
		Handler:     withCORS(withRequestLog(mux)),
		ReadTimeout: s.conf.Server.ReadTimeout,
		// no WriteTimeout: merged files stream for a long time
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.conf.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Logger.Errorw("server shutdown failed", "error", err)
		}
	}()

	log.Logger.Infow("server listens to new requests", "addr", s.conf.Server.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server stopped unexpectedly")
	}

	return nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Logger.Infow("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}
