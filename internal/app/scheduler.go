package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fitlearn/classhub/internal/registry"
)

const sweepInterval = 5 * time.Minute

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	registry *registry.Registry
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(reg *registry.Registry, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		registry: reg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runRegistrySweepTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runRegistrySweepTask периодически выбрасывает из реестра мёртвые
// соединения, чтобы он не рос за пределами живых подключений
func (s *Scheduler) runRegistrySweepTask(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.registry.Sweep(); removed > 0 {
				s.logger.Info("Swept dead connections",
					zap.Int("removed", removed),
					zap.Int("alive", s.registry.Len()),
				)
			}
		case <-s.stopChan:
			s.logger.Info("Registry sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Registry sweep task cancelled")
			return
		}
	}
}
