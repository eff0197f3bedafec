// Package exporter serves query statistics over HTTP so external
// monitoring can scrape a running database process.
package exporter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"minidb/pkg/database"
)

// Exporter exposes /metrics and /healthz for one database.
type Exporter struct {
	db   *database.Database
	addr string
}

func New(db *database.Database, addr string) *Exporter {
	return &Exporter{db: db, addr: addr}
}

func (e *Exporter) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		info := e.db.GetStatistics()
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(w, "minidb_queries_total %d\n", info.QueryCount)
		fmt.Fprintf(w, "minidb_query_errors_total %d\n", info.ErrorCount)
		fmt.Fprintf(w, "minidb_query_duration_avg_seconds %f\n", info.AvgDuration.Seconds())
		fmt.Fprintf(w, "minidb_tables %d\n", info.TableCount)
		fmt.Fprintf(w, "minidb_active_transactions %d\n", info.ActiveTx)
	})

	return r
}

// Serve runs the HTTP endpoint until ctx is cancelled, then shuts the
// server down gracefully.
func (e *Exporter) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              e.addr,
		Handler:           e.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
