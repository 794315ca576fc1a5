package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/leadradar/internal/analysis"
	"github.com/ppiankov/leadradar/internal/pipeline"
	"github.com/ppiankov/leadradar/internal/store"
	"github.com/ppiankov/leadradar/internal/workflow"
)

// appEnv holds the opened store and the services built on it
type appEnv struct {
	Store    store.Store
	Workflow *workflow.Service
}

// Close releases the store
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv opens and migrates the store, then builds analysis, pipeline and workflow
// from the effective config. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, eris.Wrap(err, "create store directory")
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	svc := analysis.NewServiceFromConfig(cfg)
	zap.L().Debug("analysis ready",
		zap.String("mode", string(svc.Mode())),
		zap.String("plan", cfg.AI.Plan),
		zap.String("store", cfg.Store.Path),
	)

	p := pipeline.NewPipeline(cfg, pipeline.WithAnalyzer(svc))
	return &appEnv{
		Store:    st,
		Workflow: workflow.New(st, p, svc),
	}, nil
}
