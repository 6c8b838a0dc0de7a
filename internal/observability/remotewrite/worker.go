package remotewrite

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/greenpack/internal/config"
	"github.com/smallbiznis/greenpack/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("metrics.remotewrite",
	fx.Provide(NewPusher),
	fx.Provide(NewWorker),
	fx.Invoke(func(lc fx.Lifecycle, w *Worker) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				w.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				w.Stop()
				return nil
			},
		})
	}),
)

var inquiryStatuses = []string{"new", "in_progress", "quoted", "closed"}

// Worker refreshes the business gauges from the database and, when a pusher
// is configured, ships the registry after every refresh.
type Worker struct {
	db       *gorm.DB
	registry *prometheus.Registry
	gauges   *metrics.HTTPMetrics
	pusher   Pusher
	interval time.Duration
	log      *zap.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	pushFails atomic.Bool
}

type WorkerParams struct {
	fx.In

	Config   config.Config
	DB       *gorm.DB
	Registry *prometheus.Registry
	Gauges   *metrics.HTTPMetrics
	Pusher   Pusher `optional:"true"`
	Log      *zap.Logger
}

func NewWorker(p WorkerParams) *Worker {
	interval := p.Config.Metrics.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{
		db:       p.DB,
		registry: p.Registry,
		gauges:   p.Gauges,
		pusher:   p.Pusher,
		interval: interval,
		log:      p.Log.Named("metrics.remotewrite"),
	}
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.Tick(ctx)
		for {
			select {
			case <-ticker.C:
				w.Tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

// Tick refreshes the gauges once and pushes if configured.
func (w *Worker) Tick(ctx context.Context) {
	w.refresh(ctx)
	if w.pusher == nil {
		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := w.pusher.Push(pushCtx, w.registry); err != nil {
		// Log the first failure of a streak only.
		if !w.pushFails.Swap(true) {
			w.log.Warn("metrics push failed", zap.Error(err))
		}
		return
	}
	if w.pushFails.Swap(false) {
		w.log.Info("metrics push recovered")
	}
}

func (w *Worker) refresh(ctx context.Context) {
	if w.db == nil || w.gauges == nil {
		return
	}

	for _, status := range inquiryStatuses {
		var count int64
		if err := w.db.WithContext(ctx).Table("inquiries").Where("status = ?", status).Count(&count).Error; err != nil {
			w.log.Debug("count inquiries failed", zap.Error(err))
			return
		}
		w.gauges.SetInquiries(status, count)
	}

	var subscribers int64
	if err := w.db.WithContext(ctx).Table("newsletter_subscribers").Where("subscribed = ?", true).Count(&subscribers).Error; err == nil {
		w.gauges.SetActiveSubscribers(subscribers)
	}

	var products int64
	if err := w.db.WithContext(ctx).Table("products").Count(&products).Error; err == nil {
		w.gauges.SetProducts(products)
	}
}
