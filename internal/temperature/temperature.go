// Package temperature polls a Prometheus server for temperatures per location.
package temperature

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/BeatGlow/wallclock/internal/metrics"
)

// LocationLabel is the label that names where a sample was measured.
const LocationLabel model.LabelName = "location"

// DefaultInterval between queries.
const DefaultInterval = 5 * time.Second

// Poller runs an instant query at a fixed interval and keeps the latest
// reading of every location.
type Poller struct {
	api      v1.API
	query    string
	interval time.Duration

	mu       sync.RWMutex
	readings map[string]float64
}

// New returns a Poller for the Prometheus server at address.
func New(address, query string, interval time.Duration) (*Poller, error) {
	client, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("temperature: %w", err)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		api:      v1.NewAPI(client),
		query:    query,
		interval: interval,
		readings: make(map[string]float64),
	}, nil
}

// Temperature returns the latest reading for location.
func (p *Poller) Temperature(location string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.readings[location]
	return v, ok
}

// Run polls until ctx is done. Failed polls are logged and retried on the
// next tick.
func (p *Poller) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "temperature: polling", "query", p.query, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			slog.WarnContext(ctx, "temperature: poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs the query once and replaces the readings with its result.
func (p *Poller) Poll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	value, warnings, err := p.api.Query(ctx, p.query, time.Now())
	if err != nil {
		metrics.TemperaturePolls.WithLabelValues(metrics.ResultError).Inc()
		return fmt.Errorf("temperature: query: %w", err)
	}
	for _, w := range warnings {
		slog.DebugContext(ctx, "temperature: query warning", "warning", w)
	}

	readings, err := parse(value)
	if err != nil {
		metrics.TemperaturePolls.WithLabelValues(metrics.ResultError).Inc()
		return err
	}
	metrics.TemperaturePolls.WithLabelValues(metrics.ResultOK).Inc()
	metrics.TemperatureReadings.Set(float64(len(readings)))

	p.mu.Lock()
	p.readings = readings
	p.mu.Unlock()
	return nil
}

// parse keeps the samples of an instant vector that carry a location.
func parse(value model.Value) (map[string]float64, error) {
	vector, ok := value.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("temperature: expected a vector result, got %T", value)
	}
	readings := make(map[string]float64, len(vector))
	for _, sample := range vector {
		location, ok := sample.Metric[LocationLabel]
		if !ok || location == "" {
			continue
		}
		readings[string(location)] = float64(sample.Value)
	}
	return readings, nil
}
