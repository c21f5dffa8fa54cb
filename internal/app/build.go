package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/tripgenie/internal/audit"
	"github.com/antoniostano/tripgenie/internal/confirm"
	"github.com/antoniostano/tripgenie/internal/config"
	"github.com/antoniostano/tripgenie/internal/dialogue"
	"github.com/antoniostano/tripgenie/internal/httpapi"
	"github.com/antoniostano/tripgenie/internal/observability"
	"github.com/antoniostano/tripgenie/internal/places"
	"github.com/antoniostano/tripgenie/internal/results"
	"github.com/antoniostano/tripgenie/internal/session"
)

type BuildResult struct {
	Config    config.Config
	API       *httpapi.Server
	Router    *dialogue.Router
	Sessions  *session.Manager
	Metrics   *observability.Metrics
	Audit     audit.Store
	Providers ProviderInfo

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

// Build wires the process-wide state objects from cfg. The session janitor
// runs until ctx is done.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	catalog := places.DefaultCatalog()
	if strings.TrimSpace(cfg.CategoriesFile) != "" {
		c, err := places.LoadCatalog(cfg.CategoriesFile)
		if err != nil {
			return nil, fmt.Errorf("category catalog load failed: %w", err)
		}
		catalog = c
	}

	collab, err := resolveCollaborators(cfg, catalog, metrics)
	if err != nil {
		return nil, err
	}

	auditStore, err := audit.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("audit store init failed: %w", err)
	}

	sessions := session.NewManager(cfg.SessionTimeout)
	router, err := dialogue.NewRouter(dialogue.Options{
		Sessions:         sessions,
		Pending:          confirm.NewRegistry(),
		Tracker:          results.NewTracker(cfg.PageSize),
		Catalog:          catalog,
		Resolver:         collab.resolver,
		Geocoder:         collab.geocoder,
		Places:           collab.places,
		Itinerary:        collab.itinerary,
		ItineraryDays:    cfg.ItineraryDays,
		ItineraryTimeout: cfg.ItineraryTimeout,
		EndPhrases:       cfg.EndPhrases,
		Metrics:          metrics,
		Audit:            audit.NewRecorder(auditStore),
	})
	if err != nil {
		_ = auditStore.Close()
		return nil, err
	}
	sessions.StartJanitor(ctx, cfg.JanitorInterval)

	api := httpapi.New(cfg, router, metrics, auditStore)

	cleanup := func() error {
		var errs []string
		if err := auditStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:    cfg,
		API:       api,
		Router:    router,
		Sessions:  sessions,
		Metrics:   metrics,
		Audit:     auditStore,
		Providers: collab.info,
		Cleanup:   cleanup,
	}, nil
}
