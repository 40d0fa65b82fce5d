package spike

// Monitor de spikes de precio: máquina de estados con dos fases.
//   MONITORING — sondea los implied NO asks por ticker cada poll interval
//   BURST — emite N alertas a intervalo fijo tras detectar un spike
// Un ticker en cooldown no puede re-disparar hasta que expire la ventana.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/ports"
)

// snapshot es una observación puntual de precio.
type snapshot struct {
	priceCents int
	at         time.Time
}

// History es el historial rodante de precios por ticker.
type History struct {
	maxAge time.Duration
	data   map[string][]snapshot
}

// NewHistory crea un historial con la edad máxima dada.
func NewHistory(maxAge time.Duration) *History {
	return &History{maxAge: maxAge, data: make(map[string][]snapshot)}
}

// Record añade una observación para el ticker.
func (h *History) Record(ticker string, priceCents int, at time.Time) {
	h.data[ticker] = append(h.data[ticker], snapshot{priceCents: priceCents, at: at})
}

// Prune descarta observaciones más viejas que maxAge.
func (h *History) Prune(now time.Time) {
	cutoff := now.Add(-h.maxAge)
	for ticker, snaps := range h.data {
		i := 0
		for i < len(snaps) && snaps[i].at.Before(cutoff) {
			i++
		}
		if i == len(snaps) {
			delete(h.data, ticker)
		} else if i > 0 {
			h.data[ticker] = snaps[i:]
		}
	}
}

// Event es un spike detectado.
type Event struct {
	Ticker     string
	OldCents   int
	NewCents   int
	DeltaCents int
	Elapsed    time.Duration
}

// Monitor implementa el loop de detección y alerta.
type Monitor struct {
	cfg       *config.Config
	market    ports.MarketProvider
	notifier  ports.Notifier
	history   *History
	cooldowns map[string]time.Time

	// inyectables en tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewMonitor crea un monitor listo para Run.
func NewMonitor(cfg *config.Config, market ports.MarketProvider, notifier ports.Notifier) *Monitor {
	return &Monitor{
		cfg:       cfg,
		market:    market,
		notifier:  notifier,
		history:   NewHistory(cfg.SpikeWindow() + 2*time.Minute),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Detect busca el mayor spike dentro de la ventana de detección.
// Devuelve nil si ningún ticker supera el umbral o todos están en cooldown.
func (m *Monitor) Detect(now time.Time) *Event {
	windowStart := now.Add(-m.cfg.SpikeWindow())
	cooldown := time.Duration(m.cfg.Spike.CooldownSeconds) * time.Second

	var best *Event
	for ticker, snaps := range m.history.data {
		if fired, ok := m.cooldowns[ticker]; ok && now.Sub(fired) < cooldown {
			continue
		}
		if len(snaps) < 2 {
			continue
		}

		// Observación más antigua dentro de la ventana
		var oldest *snapshot
		for i := range snaps {
			if !snaps[i].at.Before(windowStart) {
				oldest = &snaps[i]
				break
			}
		}
		if oldest == nil {
			continue
		}

		current := snaps[len(snaps)-1]
		delta := current.priceCents - oldest.priceCents
		if abs(delta) < m.cfg.Spike.ThresholdCents {
			continue
		}

		event := &Event{
			Ticker:     ticker,
			OldCents:   oldest.priceCents,
			NewCents:   current.priceCents,
			DeltaCents: delta,
			Elapsed:    current.at.Sub(oldest.at),
		}
		if best == nil || abs(event.DeltaCents) > abs(best.DeltaCents) {
			best = event
		}
	}
	return best
}

// Poll hace una pasada de MONITORING: snapshot de precios, prune y detección.
func (m *Monitor) Poll(ctx context.Context) (*Event, error) {
	prices, err := m.market.FetchEventPrices(ctx, m.cfg.Spike.TrackedCities)
	if err != nil {
		return nil, fmt.Errorf("spike.Poll: fetch prices: %w", err)
	}

	now := m.now()
	for ticker, price := range prices {
		m.history.Record(ticker, price, now)
	}
	m.history.Prune(now)

	return m.Detect(now), nil
}

// Burst emite las alertas de la fase BURST para el spike dado.
func (m *Monitor) Burst(ctx context.Context, event *Event) error {
	m.cooldowns[event.Ticker] = m.now()

	subject := fmt.Sprintf("price spike %s", event.Ticker)
	interval := time.Duration(m.cfg.Spike.BurstIntervalSecs) * time.Second

	for i := 1; i <= m.cfg.Spike.BurstCount; i++ {
		body := fmt.Sprintf("[%d/%d] implied NO ask %dc → %dc (%+dc in %.0fs)",
			i, m.cfg.Spike.BurstCount,
			event.OldCents, event.NewCents, event.DeltaCents,
			event.Elapsed.Seconds())

		if err := m.notifier.Alert(ctx, subject, body); err != nil {
			slog.Warn("burst alert failed", "ticker", event.Ticker, "error", err)
		}

		if i < m.cfg.Spike.BurstCount {
			if err := m.sleep(ctx, interval); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run ejecuta el loop MONITORING/BURST hasta que el contexto se cancele.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("spike monitor starting",
		"threshold_cents", m.cfg.Spike.ThresholdCents,
		"window_s", m.cfg.Spike.WindowSeconds,
		"poll_s", m.cfg.Spike.PollIntervalSeconds)

	for {
		event, err := m.Poll(ctx)
		if err != nil {
			slog.Warn("poll failed, retrying next interval", "error", err)
		}

		if event != nil {
			slog.Info("spike detected",
				"ticker", event.Ticker,
				"old_cents", event.OldCents,
				"new_cents", event.NewCents,
				"delta_cents", event.DeltaCents)
			if err := m.Burst(ctx, event); err != nil {
				return err
			}
		}

		if err := m.sleep(ctx, m.cfg.SpikePollInterval()); err != nil {
			return nil // cancelado: salida limpia
		}
	}
}

// sleepCtx duerme la duración dada respetando la cancelación del contexto.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
