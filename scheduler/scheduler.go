// Package scheduler provides automated index rebuilds and health
// monitoring for the annotation service. It handles cron-based rebuilds of
// the canonical index from reference data and coordinates atomic swaps
// into the data container using dependency injection.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/openmedrec/rxnorm-annotator/cluster"
	"github.com/openmedrec/rxnorm-annotator/index"
	"github.com/openmedrec/rxnorm-annotator/interfaces"
	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/matcher"
	"github.com/openmedrec/rxnorm-annotator/metrics"
	"github.com/openmedrec/rxnorm-annotator/validation"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Options tune a rebuild independent of where the data comes from.
type Options struct {
	IndexFile       string  // persisted artifact path, empty disables saving
	FuzzyThreshold  float64 // engine-wide fuzzy floor
	RxNormFuzzyGate float64 // primary catalog fuzzy gate
	SupplementGate  float64 // secondary catalog fuzzy gate
}

// Scheduler rebuilds the matching state on a schedule.
type Scheduler struct {
	dataStore   interfaces.DataStore
	parser      interfaces.Parser
	supplements interfaces.SupplementSource // nil when no registry configured
	options     Options
	scheduler   *gocron.Scheduler
}

// NewScheduler creates a scheduler with injected dependencies. supplements
// may be nil when no registry is configured.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser,
	supplements interfaces.SupplementSource, options Options) *Scheduler {
	return &Scheduler{
		dataStore:   dataStore,
		parser:      parser,
		supplements: supplements,
		options:     options,
		scheduler:   gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial build and schedules rebuilds at 06:00 and
// 18:00 daily, plus a staleness monitor.
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At("06:00;18:00").Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to rebuild indexes", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule rebuilds", "error", err)
		return fmt.Errorf("failed to schedule rebuilds: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// updateData performs a complete rebuild off to the side and swaps it in.
func (s *Scheduler) updateData() error {
	// Prevent concurrent rebuilds
	if !s.dataStore.BeginUpdate() {
		logging.Info("Rebuild already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting index rebuild")
	start := time.Now()

	catalog, err := s.parser.ParseCatalog()
	if err != nil {
		return fmt.Errorf("failed to parse term catalog: %w", err)
	}

	relations, err := s.parser.ParseRelations()
	if err != nil {
		// A missing relationship graph degrades to singleton clusters.
		logging.Warn("Failed to parse relations, clustering degraded to singletons", "error", err)
		relations = nil
	}

	report := validation.ReportDataQuality(catalog, relations)
	logging.Info("Reference data quality",
		"entries", report.Entries,
		"concepts", report.Concepts,
		"dangling_relations", report.DanglingRelations,
		"entries_without_source", report.EntriesWithoutSource,
		"duplicate_names", report.DuplicateNames,
	)

	clusters := cluster.Build(catalog, relations)
	primary := index.Build(catalog, clusters)
	if err := primary.Validate(); err != nil {
		return fmt.Errorf("primary index unusable: %w", err)
	}

	if s.options.IndexFile != "" {
		if err := primary.Save(s.options.IndexFile); err != nil {
			// The in-memory index still serves; only reload-from-disk is lost.
			logging.Warn("Failed to persist canonical index", "error", err)
		}
	}

	supplementIndex := s.fetchSupplementIndex()

	catalogs := []matcher.Catalog{
		{Index: primary, FuzzyGate: s.options.RxNormFuzzyGate},
	}
	if supplementIndex != nil {
		catalogs = append(catalogs, matcher.Catalog{Index: supplementIndex, FuzzyGate: s.options.SupplementGate})
	}
	engine := matcher.NewEngine(s.options.FuzzyThreshold, catalogs...)

	s.dataStore.UpdateData(engine, primary, supplementIndex)

	metrics.IndexEntries.WithLabelValues(primary.Source).Set(float64(primary.Len()))
	metrics.IndexClusters.WithLabelValues(primary.Source).Set(float64(primary.Clusters))
	if supplementIndex != nil {
		metrics.IndexEntries.WithLabelValues(supplementIndex.Source).Set(float64(supplementIndex.Len()))
		metrics.IndexClusters.WithLabelValues(supplementIndex.Source).Set(float64(supplementIndex.Clusters))
	}

	elapsed := time.Since(start)
	metrics.IndexBuildDuration.Observe(elapsed.Seconds())
	logging.Info("Index rebuild completed",
		"duration", elapsed.String(),
		"keys", primary.Len(),
		"clusters", primary.Clusters,
		"conflicts", primary.Conflicts,
	)

	return nil
}

// fetchSupplementIndex builds the secondary catalog. Registry failures are
// non-fatal: the primary catalog still serves.
func (s *Scheduler) fetchSupplementIndex() *index.Index {
	if s.supplements == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	supplementEntries, err := s.supplements.FetchAll(ctx)
	if err != nil {
		logging.Warn("Supplement registry unavailable, continuing without secondary catalog", "error", err)
		return nil
	}
	if len(supplementEntries) == 0 {
		return nil
	}

	return index.BuildFromEntries("supplements", supplementEntries)
}

// startHealthMonitoring warns when the matching state goes stale.
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			lastUpdate := s.dataStore.GetLastUpdated()
			if time.Since(lastUpdate) > 25*time.Hour {
				logging.Warn("Indexes haven't been rebuilt in over 25 hours")
			}
		}
	}()
}
