package status

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/alerts"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
)

// Overall states of a report.
const (
	AllOperational = "all_operational"
	IssuesDetected = "issues_detected"
	MajorOutage    = "major_outage"
)

// CacheTTL is how long an aggregated report is served from cache.
const CacheTTL = 60 * time.Second

// AlertTimeout bounds one round of status alerts.
const AlertTimeout = 15 * time.Second

// RegistrySource supplies the providers to probe.
type RegistrySource interface {
	StatusRegistry() (*catalog.StatusRegistry, error)
}

// Report is the aggregated status of all providers.
type Report struct {
	Success          bool             `json:"success"`
	OverallStatus    string           `json:"overall_status"`
	Providers        []ProviderStatus `json:"providers"`
	OperationalCount int              `json:"operational_count"`
	DegradedCount    int              `json:"degraded_count"`
	DownCount        int              `json:"down_count"`
	LastUpdated      string           `json:"last_updated"`
	CacheTTLSeconds  int              `json:"cache_ttl_seconds"`
}

// Aggregator probes every registered provider concurrently and keeps the
// last report in a single cache slot. Reports handed out are shared and
// must not be modified.
type Aggregator struct {
	source    RegistrySource
	prober    *Prober
	logger    *slog.Logger
	notifiers []alerts.Notifier
	ttl       time.Duration
	now       func() time.Time

	group  singleflight.Group
	alerts sync.WaitGroup

	mu          sync.Mutex
	cached      *Report
	capturedAt  time.Time
	lastOverall string
}

// NewAggregator creates an aggregator. Notifiers receive an alert whenever
// the overall status of a fresh report differs from the previous one.
func NewAggregator(source RegistrySource, prober *Prober, logger *slog.Logger, notifiers ...alerts.Notifier) *Aggregator {
	return &Aggregator{
		source:      source,
		prober:      prober,
		logger:      logger,
		notifiers:   notifiers,
		ttl:         CacheTTL,
		now:         time.Now,
		lastOverall: AllOperational,
	}
}

// WithClock replaces the clock used for cache expiry and timestamps.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Check returns the cached report while it is fresh, otherwise probes all
// providers. Concurrent misses share one refresh. The bool reports whether
// the result came from cache. Cancelling ctx stops waiting but not the
// probes already in flight.
func (a *Aggregator) Check(ctx context.Context) (*Report, bool, error) {
	if r := a.fromCache(); r != nil {
		a.logger.Debug("status served from cache")
		return r, true, nil
	}

	ch := a.group.DoChan("status", func() (any, error) {
		if r := a.fromCache(); r != nil {
			return r, nil
		}
		return a.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*Report), false, nil
	}
}

func (a *Aggregator) fromCache() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached != nil && a.now().Sub(a.capturedAt) < a.ttl {
		return a.cached
	}
	return nil
}

func (a *Aggregator) refresh(ctx context.Context) (*Report, error) {
	registry, err := a.source.StatusRegistry()
	if err != nil {
		return nil, fmt.Errorf("load status registry: %w", err)
	}

	capturedAt := a.now()
	results := make([]ProviderStatus, registry.Providers.Len())
	var g errgroup.Group
	i := 0
	for pair := registry.Providers.Oldest(); pair != nil; pair = pair.Next() {
		idx, id, sp := i, pair.Key, pair.Value
		g.Go(func() error {
			results[idx] = a.prober.Probe(ctx, id, sp)
			return nil
		})
		i++
	}
	_ = g.Wait()

	report := Summarize(results, a.now())

	a.mu.Lock()
	a.cached = report
	a.capturedAt = capturedAt
	previous := a.lastOverall
	a.lastOverall = report.OverallStatus
	a.mu.Unlock()

	a.logger.Info("status refreshed",
		"overall", report.OverallStatus,
		"down", report.DownCount,
		"degraded", report.DegradedCount,
		"providers", len(report.Providers),
	)

	if previous != report.OverallStatus && len(a.notifiers) > 0 {
		a.alerts.Add(1)
		go func() {
			defer a.alerts.Done()
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), AlertTimeout)
			defer cancel()
			a.notify(actx, previous, report)
		}()
	}
	return report, nil
}

// Wait blocks until alerts already dispatched have been sent.
func (a *Aggregator) Wait() {
	a.alerts.Wait()
}

// Summarize sorts provider results by severity then name and derives the
// counts and overall status.
func Summarize(results []ProviderStatus, at time.Time) *Report {
	sorted := append([]ProviderStatus(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := severity(sorted[i].Status), severity(sorted[j].Status)
		if si != sj {
			return si < sj
		}
		return sorted[i].Name < sorted[j].Name
	})

	r := &Report{
		Success:         true,
		Providers:       sorted,
		LastUpdated:     timestamp(at),
		CacheTTLSeconds: int(CacheTTL / time.Second),
	}
	for _, p := range sorted {
		switch p.Status {
		case Operational:
			r.OperationalCount++
		case Degraded:
			r.DegradedCount++
		case Down:
			r.DownCount++
		}
	}
	r.OverallStatus = Overall(r.DownCount, r.DegradedCount, len(sorted))
	return r
}

// Overall classifies a report: a major outage when at least half of the
// providers are down, issues when any is down or degraded.
func Overall(down, degraded, total int) string {
	switch {
	case down > 0 && down*2 >= total:
		return MajorOutage
	case down > 0 || degraded > 0:
		return IssuesDetected
	default:
		return AllOperational
	}
}

func severity(s State) int {
	switch s {
	case Down:
		return 0
	case Degraded:
		return 1
	case Operational:
		return 2
	default:
		return 3
	}
}

func (a *Aggregator) notify(ctx context.Context, previous string, r *Report) {
	if len(a.notifiers) == 0 {
		return
	}
	alert := alerts.Alert{
		Level:          levelFor(r.OverallStatus),
		OverallStatus:  r.OverallStatus,
		PreviousStatus: previous,
		CheckedAt:      r.LastUpdated,
	}
	for _, p := range r.Providers {
		switch p.Status {
		case Down:
			alert.DownProviders = append(alert.DownProviders, p.Name)
		case Degraded:
			alert.DegradedProviders = append(alert.DegradedProviders, p.Name)
		}
	}
	alert.Message = fmt.Sprintf("%d of %d providers down, %d degraded",
		r.DownCount, len(r.Providers), r.DegradedCount)

	for _, n := range a.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			a.logger.Error("send status alert", "notifier", n.Name(), "error", err)
			continue
		}
		a.logger.Info("status alert sent", "notifier", n.Name(), "overall", r.OverallStatus)
	}
}

func levelFor(overall string) alerts.AlertLevel {
	switch overall {
	case MajorOutage:
		return alerts.AlertOutage
	case IssuesDetected:
		return alerts.AlertIssues
	default:
		return alerts.AlertRecovered
	}
}
