// Package app wires configuration, the knowledge base, storage, the narrative
// collaborator and the HTTP transport into one running analyzer.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/api"
	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/history"
	"github.com/thyroid-lit-analyzer/internal/knowledge"
	"github.com/thyroid-lit-analyzer/internal/service"
	"github.com/thyroid-lit-analyzer/pkg/external"
)

// App owns every long-lived collaborator of the analyzer.
type App struct {
	config   domain.ConfigManager
	logger   *logrus.Logger
	snapshot *knowledge.Snapshot
	archive  *knowledge.Archive
	watcher  *knowledge.Watcher
	history  history.Store
	cache    *external.NarrativeCache
	analyzer *service.Analyzer
	server   *api.Server
}

// New builds the application from configuration. A missing knowledge base is
// not fatal: analyses then run on the rule-only engine.
func New(ctx context.Context, configManager domain.ConfigManager, logger *logrus.Logger) (*App, error) {
	cfg := configManager.GetConfig()
	a := &App{
		config:   configManager,
		logger:   logger,
		snapshot: knowledge.NewSnapshot(nil),
	}

	if cfg.KnowledgeBase.ArchivePath != "" {
		archive, err := knowledge.NewArchive(cfg.KnowledgeBase.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open knowledge base archive: %w", err)
		}
		a.archive = archive
	}

	if kb := a.loadKnowledge(ctx, cfg.KnowledgeBase); kb != nil {
		a.snapshot.Swap(kb)
	}

	if cfg.KnowledgeBase.Watch {
		if err := a.startWatcher(cfg.KnowledgeBase.Path); err != nil {
			a.Close()
			return nil, err
		}
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open analysis history: %w", err)
	}
	a.history = store

	var recorder domain.AnalysisRecorder
	if store != nil {
		recorder = history.NewRecorder(store, logger)
	}

	narrator, err := a.buildNarrator(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.analyzer = service.NewAnalyzer(logger, a.snapshot, narrator, recorder)

	kbPath := cfg.KnowledgeBase.Path
	a.server = api.NewServer(configManager, api.Dependencies{
		Analyzer: a.analyzer,
		History:  store,
		Reload: func() (*domain.KnowledgeBase, error) {
			kb, err := a.snapshot.Reload(kbPath)
			if err != nil {
				return nil, err
			}
			a.archiveVersion(context.Background(), kb)
			return kb, nil
		},
		Logger: logger,
	})

	return a, nil
}

// Analyzer returns the analyzer facade.
func (a *App) Analyzer() *service.Analyzer {
	return a.analyzer
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run serves HTTP and watches the knowledge base until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil {
				a.logger.WithError(err).Warn("Knowledge base watcher stopped")
			}
		}()
	}
	return a.server.Start(ctx)
}

// Close releases every resource the application opened.
func (a *App) Close() error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.archive != nil {
		errs = append(errs, a.archive.Close())
	}
	return errors.Join(errs...)
}

// loadKnowledge tries the knowledge base file, then the latest archived
// version, then ingesting the source document.
func (a *App) loadKnowledge(ctx context.Context, cfg domain.KnowledgeBaseConfig) *domain.KnowledgeBase {
	log := a.logger.WithField("path", cfg.Path)

	if _, err := os.Stat(cfg.Path); err == nil {
		kb, err := knowledge.Load(cfg.Path)
		if err == nil {
			log.WithField("version", kb.Version).Info("Knowledge base loaded")
			return kb
		}
		log.WithError(err).Warn("Failed to load knowledge base file")
	}

	if a.archive != nil {
		kb, err := a.archive.Latest(ctx)
		if err == nil {
			log.WithField("version", kb.Version).Info("Knowledge base restored from archive")
			return kb
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.WithError(err).Warn("Failed to read knowledge base archive")
		}
	}

	if cfg.IngestOnStart && cfg.DocumentPath != "" {
		result, err := Ingest(ctx, a.logger, cfg.DocumentPath, cfg.Path, a.archive)
		if err == nil {
			return result.KnowledgeBase
		}
		log.WithError(err).WithField("document", cfg.DocumentPath).Warn("Failed to ingest document")
	}

	log.Warn("No knowledge base available, analyses will use the rule-only engine")
	return nil
}

func (a *App) startWatcher(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create knowledge base directory: %w", err)
	}

	watcher, err := knowledge.NewWatcher(path, a.snapshot, a.logger)
	if err != nil {
		return err
	}
	watcher.OnReload(func(kb *domain.KnowledgeBase) {
		a.archiveVersion(context.Background(), kb)
	})
	a.watcher = watcher
	return nil
}

func (a *App) archiveVersion(ctx context.Context, kb *domain.KnowledgeBase) {
	if a.archive == nil {
		return
	}
	if _, err := a.archive.SaveVersion(ctx, kb); err != nil {
		a.logger.WithError(err).WithField("version", kb.Version).Warn("Failed to archive knowledge base")
	}
}

// buildNarrator returns nil when the narrative is disabled.
func (a *App) buildNarrator(ctx context.Context, cfg *domain.Config) (domain.NarrativeProvider, error) {
	if !cfg.Narrative.Enabled {
		return nil, nil
	}

	provider, err := external.NewOpenAINarrator(ctx, cfg.Narrative, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create narrative provider: %w", err)
	}

	cache, err := external.NewNarrativeCache(cfg.Cache)
	if err != nil {
		a.logger.WithError(err).Warn("Narrative cache unavailable, narratives will not be cached")
		return provider, nil
	}
	a.cache = cache

	return external.NewCachedNarrator(cache, provider, a.logger), nil
}
