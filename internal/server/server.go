package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/insightdb/insightdb/internal/config"
	"github.com/insightdb/insightdb/internal/service"
)

type Server struct {
	cfg  *config.Config
	http *http.Server
	db   *service.Postgres // held for graceful close
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	router, db, err := s.setupRoutes()
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}
	s.db = db

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)

		if s.db != nil {
			if closeErr := s.db.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("error closing database pool")
			} else {
				log.Info().Msg("database pool closed")
			}
		}

		return err
	case err := <-errCh:
		return err
	}
}
