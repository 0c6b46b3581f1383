// Пакет scheduler — фоновый цикл рассылки уведомлений.
// Один таймер, один обход за раз; пропущенные тики схлопываются.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"equipment-tracker/internal/services"
)

type Scheduler struct {
	notifier services.NotifierServiceInterface
	interval time.Duration
	logger   *zap.Logger

	running  sync.Mutex // держится на время одного обхода
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  bool
}

func NewScheduler(notifier services.NotifierServiceInterface, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновый цикл. Повторный вызов игнорируется.
func (s *Scheduler) Start(ctx context.Context) {
	if s.started {
		return
	}
	s.started = true

	s.logger.Info("планировщик уведомлений запущен",
		zap.Duration("interval", s.interval))

	go s.loop(ctx)
}

// Stop останавливает цикл и дожидается завершения текущего обхода.
// Повторный вызов безопасен и просто возвращается.
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	s.logger.Info("планировщик уведомлений остановлен")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce выполняет один обход. Если обход уже идёт (медленная почта,
// ручной запуск), новый тик пропускается, а не ставится в очередь.
// Возвращает false, если запуск был пропущен.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.TryLock() {
		s.logger.Warn("предыдущий обход ещё не завершён, тик пропущен")
		return false
	}
	defer s.running.Unlock()

	// Паника внутри обхода не должна убивать цикл.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("паника при обходе уведомлений", zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := s.notifier.Run(ctx); err != nil {
		s.logger.Error("обход уведомлений завершился с ошибкой", zap.Error(err))
		return true
	}

	s.logger.Info("обход уведомлений завершён", zap.Duration("elapsed", time.Since(start)))
	return true
}
