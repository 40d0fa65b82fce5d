package kalshi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jmorales/wxslate/config"
	"github.com/jmorales/wxslate/internal/domain"
	"github.com/jmorales/wxslate/internal/rules"
)

// KXHIGH* son series de temperatura máxima diaria, KXLOW* de mínima.
var (
	reHighSeries = regexp.MustCompile(`(?i)^KXHIGH`)
	reLowSeries  = regexp.MustCompile(`(?i)^KXLOW`)

	reCityFromTitle = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Highest|Lowest)\s+temperature\s+in\s+(.+?)\s+(?:on|today)`),
		regexp.MustCompile(`(?i)(?:Highest|Lowest)\s+temperature\s+in\s+(.+?)$`),
	}
)

const marketURLFmt = "https://kalshi.com/markets/%s"

// Provider implementa ports.MarketProvider sobre el Client.
type Provider struct {
	cfg    *config.Config
	client *Client
}

func NewProvider(cfg *config.Config, client *Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

// classifySeries devuelve el tipo de mercado de una serie, o "" si no es
// una serie de temperatura.
func classifySeries(seriesTicker string) domain.MarketType {
	switch {
	case reHighSeries.MatchString(seriesTicker):
		return domain.HighTemp
	case reLowSeries.MatchString(seriesTicker):
		return domain.LowTemp
	default:
		return ""
	}
}

// extractCity saca la ciudad del título del evento, con el event ticker
// como último recurso.
func extractCity(ev event) string {
	for _, re := range reCityFromTitle {
		if m := re.FindStringSubmatch(ev.Title); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ev.EventTicker
}

// isTodayEvent comprueba si el evento apunta a la fecha objetivo. Usa
// strike_date si está; si no, mira los close times de sus mercados.
func isTodayEvent(ev event, today string) bool {
	if ev.StrikeDate != "" {
		return len(ev.StrikeDate) >= 10 && ev.StrikeDate[:10] == today
	}
	for _, m := range ev.Markets {
		if len(m.CloseTime) >= 10 && m.CloseTime[:10] >= today {
			return true
		}
	}
	return false
}

func isTradable(m market) bool {
	switch strings.ToLower(m.Status) {
	case "active", "open":
		return true
	default:
		return false
	}
}

// bracketDefinition saca la definición legible del bracket.
func bracketDefinition(m market) string {
	if m.YesSubTitle != "" {
		return m.YesSubTitle
	}
	if m.Title != "" {
		return m.Title
	}
	return m.Ticker
}

// parseOrderbook convierte el book del wire format al snapshot del dominio.
// Los niveles llegan ordenados ascendente: el mejor bid es el último.
func parseOrderbook(ob orderbook) domain.OrderbookSnapshot {
	var snap domain.OrderbookSnapshot

	if n := len(ob.Yes); n > 0 {
		snap.BestYesBidCents = domain.IntPtr(ob.Yes[n-1][0])
		snap.ImpliedNoAskCents = domain.IntPtr(100 - ob.Yes[n-1][0])
		snap.Top3YesBids = topLevels(ob.Yes)
	}
	if n := len(ob.No); n > 0 {
		snap.BestNoBidCents = domain.IntPtr(ob.No[n-1][0])
		snap.ImpliedYesAskCents = domain.IntPtr(100 - ob.No[n-1][0])
		snap.Top3NoBids = topLevels(ob.No)
	}
	if snap.ImpliedNoAskCents != nil && snap.BestNoBidCents != nil {
		snap.BidRoomCents = domain.IntPtr(*snap.ImpliedNoAskCents - *snap.BestNoBidCents)
	}
	return snap
}

// topLevels devuelve hasta tres niveles, mejor bid primero.
func topLevels(levels [][2]int) []domain.BookLevel {
	start := len(levels) - 3
	if start < 0 {
		start = 0
	}
	top := levels[start:]
	out := make([]domain.BookLevel, 0, len(top))
	for i := len(top) - 1; i >= 0; i-- {
		out = append(out, domain.BookLevel{PriceCents: top[i][0], Quantity: top[i][1]})
	}
	return out
}

// FetchCandidates descubre las series de temperatura, enumera los brackets
// del día y devuelve los que caen en la ventana de scan con su orderbook.
func (p *Provider) FetchCandidates(ctx context.Context) ([]domain.RawCandidate, domain.ScanStats, error) {
	now := time.Now()
	today := p.todayET(now)

	temp, err := p.temperatureSeries(ctx)
	if err != nil {
		return nil, domain.ScanStats{}, fmt.Errorf("kalshi.FetchCandidates: %w", err)
	}
	if len(temp) == 0 {
		slog.Warn("no temperature series found")
		return nil, domain.ScanStats{}, nil
	}

	var candidates []domain.RawCandidate
	var stats domain.ScanStats

	for _, s := range temp {
		mt := classifySeries(s.Ticker)

		events, err := p.allEvents(ctx, s.Ticker)
		if err != nil {
			slog.Warn("events fetch failed, skipping series", "series", s.Ticker, "error", err)
			continue
		}

		for _, ev := range events {
			if !isTodayEvent(ev, today) {
				continue
			}
			stats.EventsScanned++
			city := extractCity(ev)

			for _, m := range ev.Markets {
				stats.BracketsScanned++

				if !isTradable(m) {
					slog.Debug("skipping non-tradable bracket", "ticker", m.Ticker, "status", m.Status)
					continue
				}

				book, err := p.fetchOrderbook(ctx, m.Ticker)
				if err != nil {
					slog.Warn("orderbook fetch failed", "ticker", m.Ticker, "error", err)
					continue
				}
				snap := parseOrderbook(book)

				if snap.ImpliedNoAskCents == nil {
					continue
				}
				ask := *snap.ImpliedNoAskCents
				if ask < p.cfg.PriceWindow.ScanLow || ask > p.cfg.PriceWindow.ScanHigh {
					continue
				}
				stats.CandidatesInWindow++

				candidates = append(candidates, domain.RawCandidate{
					RunTime:         now,
					TargetDateLocal: targetDateLocal(city, now, today),
					City:            city,
					MarketType:      mt,
					EventTicker:     ev.EventTicker,
					MarketTicker:    m.Ticker,
					MarketURL:       fmt.Sprintf(marketURLFmt, strings.ToLower(m.Ticker)),
					BracketDef:      bracketDefinition(m),
					Orderbook:       snap,
					Tradable:        true,
				})
				slog.Info("candidate in window",
					"ticker", m.Ticker, "implied_no_ask", ask, "bid_room", snap.BidRoomCents)
			}
		}
	}

	slog.Info("scan complete",
		"events", stats.EventsScanned,
		"brackets", stats.BracketsScanned,
		"candidates", stats.CandidatesInWindow,
	)
	return candidates, stats, nil
}

// FetchEventPrices devuelve el implied NO ask actual por ticker para las
// ciudades pedidas. Lo usa el spike monitor para el polling liviano.
func (p *Provider) FetchEventPrices(ctx context.Context, cities []string) (map[string]int, error) {
	wanted := make(map[string]bool, len(cities))
	for _, c := range cities {
		wanted[strings.ToLower(c)] = true
	}

	temp, err := p.temperatureSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("kalshi.FetchEventPrices: %w", err)
	}

	today := p.todayET(time.Now())
	prices := make(map[string]int)

	for _, s := range temp {
		events, err := p.allEvents(ctx, s.Ticker)
		if err != nil {
			continue
		}
		for _, ev := range events {
			if !isTodayEvent(ev, today) || !wanted[strings.ToLower(extractCity(ev))] {
				continue
			}
			for _, m := range ev.Markets {
				if !isTradable(m) {
					continue
				}
				book, err := p.fetchOrderbook(ctx, m.Ticker)
				if err != nil {
					continue
				}
				snap := parseOrderbook(book)
				if snap.ImpliedNoAskCents != nil {
					prices[m.Ticker] = *snap.ImpliedNoAskCents
				}
			}
		}
	}
	return prices, nil
}

// temperatureSeries lista todas las series y filtra las de temperatura.
func (p *Provider) temperatureSeries(ctx context.Context) ([]series, error) {
	var resp seriesResponse
	u := fmt.Sprintf("%s/series?category=%s", p.client.base, url.QueryEscape("Climate and Weather"))
	if err := p.client.get(ctx, p.client.limiter, u, &resp); err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	var temp []series
	for _, s := range resp.Series {
		if classifySeries(s.Ticker) != "" {
			temp = append(temp, s)
		}
	}
	slog.Debug("temperature series discovered", "count", len(temp))
	return temp, nil
}

// allEvents pagina los eventos abiertos de una serie con mercados anidados.
func (p *Provider) allEvents(ctx context.Context, seriesTicker string) ([]event, error) {
	var all []event
	cursor := ""
	for {
		u := fmt.Sprintf("%s/events?series_ticker=%s&status=open&with_nested_markets=true&limit=100",
			p.client.base, url.QueryEscape(seriesTicker))
		if cursor != "" {
			u += "&cursor=" + url.QueryEscape(cursor)
		}

		var resp eventsResponse
		if err := p.client.get(ctx, p.client.limiter, u, &resp); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		all = append(all, resp.Events...)

		if resp.Cursor == "" || len(resp.Events) == 0 {
			break
		}
		cursor = resp.Cursor
	}
	return all, nil
}

func (p *Provider) fetchOrderbook(ctx context.Context, ticker string) (orderbook, error) {
	var resp orderbookResponse
	u := fmt.Sprintf("%s/markets/%s/orderbook?depth=10", p.client.base, url.QueryEscape(ticker))
	if err := p.client.get(ctx, p.client.bookLimiter, u, &resp); err != nil {
		return orderbook{}, err
	}
	return resp.Orderbook, nil
}

// targetDateLocal devuelve la fecha objetivo en la zona horaria de la
// estación de la ciudad. Ciudad sin mapear: cae a la fecha ET del scan.
func targetDateLocal(city string, now time.Time, fallback string) string {
	tz := rules.StationTimezone(city)
	if tz == "" {
		return fallback
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fallback
	}
	return now.In(loc).Format("2006-01-02")
}

// todayET devuelve la fecha de hoy en hora del Este como YYYY-MM-DD.
func (p *Provider) todayET(now time.Time) string {
	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return now.Format("2006-01-02")
	}
	return now.In(et).Format("2006-01-02")
}
