package scheduler

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
)

// valueLogGC is the piece of the storage layer maintenance needs.
type valueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

// Service runs periodic maintenance: closing idle search sessions and
// collecting Badger value-log garbage.
type Service struct {
	cron      *cron.Cron
	analytics interfaces.AnalyticsService
	storage   interfaces.StorageManager
	config    *common.Config
	logger    arbor.ILogger

	mu      sync.Mutex
	running bool
	entryID cron.EntryID
}

// NewService creates the maintenance scheduler
func NewService(logger arbor.ILogger, analytics interfaces.AnalyticsService, storage interfaces.StorageManager, config *common.Config) *Service {
	return &Service{
		cron:      cron.New(),
		analytics: analytics,
		storage:   storage,
		config:    config,
		logger:    logger,
	}
}

// Start schedules the maintenance job. A disabled config is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Maintenance.Enabled {
		s.logger.Info().Msg("Maintenance scheduler disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("maintenance scheduler already running")
	}

	schedule := s.config.Maintenance.Schedule
	if schedule == "" {
		schedule = "*/5 * * * *"
	}

	entryID, err := s.cron.AddFunc(schedule, s.runMaintenance)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", schedule).Msg("Maintenance scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for a running job to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false

	s.logger.Info().Msg("Maintenance scheduler stopped")
}

func (s *Service) runMaintenance() {
	if closed := s.analytics.CloseIdleSessions(s.config.Analytics.SessionIdleTimeout); closed > 0 {
		s.logger.Info().Int("sessions", closed).Msg("Closed idle search sessions")
	}

	s.runValueLogGC()
}

// runValueLogGC runs Badger value-log GC rounds until there is nothing left
// to collect.
func (s *Service) runValueLogGC() {
	gc, ok := s.storage.DB().(valueLogGC)
	if !ok {
		return
	}

	rounds := 0
	for {
		err := gc.RunValueLogGC(0.5)
		if err != nil {
			if err != badger.ErrNoRewrite {
				s.logger.Warn().Err(err).Msg("Value log GC failed")
			}
			break
		}
		rounds++
	}
	if rounds > 0 {
		s.logger.Debug().Int("rounds", rounds).Msg("Value log GC completed")
	}
}
