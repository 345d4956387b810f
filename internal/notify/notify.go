// Package notify delivers outbound payloads to the reporting endpoint, per-category
// webhooks and an optional Kafka topic.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/metrics"
)

// Webhook categories.
const (
	ComplianceCategory = "compliance"
	FacilityCategory   = "facility"
	EmployeeCategory   = "employee"
)

// Message is one encoded payload on its way to a sink.
type Message struct {
	Category string
	Key      string
	Body     []byte
}

// Sink receives messages.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
	Close() error
}

// keyed payloads provide their own message key.
type keyed interface {
	MessageKey() string
}

// Dispatcher fans a payload out to every sink configured for its category.
type Dispatcher struct {
	report   Sink
	webhooks map[string]Sink
	bus      Sink
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewDispatcher builds the sinks described by cfg. The dispatcher is empty when nothing is configured.
func NewDispatcher(cfg *contract.Config, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = discardLogger()
	}
	d := &Dispatcher{webhooks: map[string]Sink{}, metrics: m, logger: logger}
	opts := HTTPOptions{
		RPS:     cfg.WebhookRPS,
		Retries: cfg.WebhookRetries,
		Gzip:    cfg.WebhookGzip,
		Logger:  logger,
	}
	if cfg.ReportURL != "" {
		d.report = NewHTTPSink("report", cfg.ReportURL, opts)
	}
	for category, url := range cfg.Webhooks {
		d.webhooks[category] = NewHTTPSink("webhook-"+category, url, opts)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
		d.bus = NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}
	return d
}

// NewDispatcherWithSinks wires already built sinks. Any of them may be nil.
func NewDispatcherWithSinks(report Sink, webhooks map[string]Sink, bus Sink, m *metrics.Metrics) *Dispatcher {
	if webhooks == nil {
		webhooks = map[string]Sink{}
	}
	return &Dispatcher{report: report, webhooks: webhooks, bus: bus, metrics: m, logger: discardLogger()}
}

// Enabled reports whether any sink is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && (d.report != nil || len(d.webhooks) > 0 || d.bus != nil)
}

// sinksFor returns the sinks a category is delivered to, in delivery order.
func (d *Dispatcher) sinksFor(category string) []Sink {
	var sinks []Sink
	if d.report != nil && category == ComplianceCategory {
		sinks = append(sinks, d.report)
	}
	if s, ok := d.webhooks[category]; ok {
		sinks = append(sinks, s)
	}
	if d.bus != nil {
		sinks = append(sinks, d.bus)
	}
	return sinks
}

// Publish encodes payload once and sends it to every sink for category. Every sink is
// attempted; failures are joined into the returned error.
func (d *Dispatcher) Publish(ctx context.Context, category string, payload any) error {
	if !d.Enabled() {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", category, err)
	}
	msg := Message{Category: category, Key: category, Body: body}
	if k, ok := payload.(keyed); ok && k.MessageKey() != "" {
		msg.Key = k.MessageKey()
	}

	var errs []error
	for _, sink := range d.sinksFor(category) {
		start := time.Now()
		err := sink.Send(ctx, msg)
		d.metrics.ObserveDelivery(sink.Name(), err, time.Since(start))
		if err != nil {
			d.logger.Warn("delivery_failed", "sink", sink.Name(), "category", category, "error", err.Error())
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	all := []Sink{d.report, d.bus}
	for _, category := range sortedCategories(d.webhooks) {
		all = append(all, d.webhooks[category])
	}
	for _, s := range all {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sortedCategories(m map[string]Sink) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
