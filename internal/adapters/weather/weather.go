// Package weather implementa el WeatherProvider contra la API del NWS.
// Cualquier fallo devuelve nil sin error: "sin datos" es un resultado válido
// que el modeler degrada a probabilidad market-implied.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmorales/wxslate/internal/domain"
)

const (
	defaultBase = "https://api.weather.gov"
	userAgent   = "wxslate (weather market scanner)"

	// El NWS pide mantenerse debajo de ~1 req/s sostenido.
	requestsPerSec = 1
)

// Provider es el cliente NWS con rate limiting.
type Provider struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter

	// gridpoint forecast URLs por estación, resuelto una vez por proceso.
	// Protegido por mu: los workers del scanner consultan en paralelo.
	mu       sync.Mutex
	gridURLs map[string]string
}

func NewProvider(base string) *Provider {
	if base == "" {
		base = defaultBase
	}
	return &Provider{
		http:     &http.Client{Timeout: 15 * time.Second},
		base:     base,
		limiter:  rate.NewLimiter(requestsPerSec, 2),
		gridURLs: make(map[string]string),
	}
}

type observationResponse struct {
	Properties struct {
		Timestamp   time.Time `json:"timestamp"`
		Temperature struct {
			Value    *float64 `json:"value"`
			UnitCode string   `json:"unitCode"`
		} `json:"temperature"`
	} `json:"properties"`
}

type stationResponse struct {
	Properties struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Temperature     float64 `json:"temperature"`
			TemperatureUnit string  `json:"temperatureUnit"`
		} `json:"periods"`
	} `json:"properties"`
}

// LatestObservation devuelve la última observación de una estación, o nil
// si la API falla o no reporta temperatura.
func (p *Provider) LatestObservation(ctx context.Context, stationICAO string) (*domain.Observation, error) {
	var resp observationResponse
	url := fmt.Sprintf("%s/stations/%s/observations/latest", p.base, stationICAO)
	if err := p.get(ctx, url, &resp); err != nil {
		slog.Warn("observation fetch failed", "station", stationICAO, "error", err)
		return nil, nil
	}

	v := resp.Properties.Temperature.Value
	if v == nil {
		return nil, nil
	}

	tempF := *v
	if resp.Properties.Temperature.UnitCode != "wmoUnit:degF" {
		tempF = *v*9/5 + 32 // el NWS reporta Celsius por defecto
	}

	return &domain.Observation{
		StationICAO: stationICAO,
		TempF:       tempF,
		ObservedAt:  resp.Properties.Timestamp,
	}, nil
}

// Forecast devuelve el máximo y mínimo del forecast horario del gridpoint
// más cercano a la estación, o nil si no hay datos.
func (p *Provider) Forecast(ctx context.Context, stationICAO string) (*domain.Forecast, error) {
	p.mu.Lock()
	forecastURL, ok := p.gridURLs[stationICAO]
	p.mu.Unlock()
	if !ok {
		var st stationResponse
		url := fmt.Sprintf("%s/stations/%s", p.base, stationICAO)
		if err := p.get(ctx, url, &st); err != nil {
			slog.Warn("station lookup failed", "station", stationICAO, "error", err)
			return nil, nil
		}
		forecastURL = st.Properties.ForecastHourly
		if forecastURL == "" {
			return nil, nil
		}
		p.mu.Lock()
		p.gridURLs[stationICAO] = forecastURL
		p.mu.Unlock()
	}

	var resp forecastResponse
	if err := p.get(ctx, forecastURL, &resp); err != nil {
		slog.Warn("forecast fetch failed", "station", stationICAO, "error", err)
		return nil, nil
	}
	if len(resp.Properties.Periods) == 0 {
		return nil, nil
	}

	// Máximo y mínimo de las próximas 24 horas del forecast horario.
	periods := resp.Properties.Periods
	if len(periods) > 24 {
		periods = periods[:24]
	}
	high, low := periods[0].Temperature, periods[0].Temperature
	for _, pd := range periods[1:] {
		if pd.Temperature > high {
			high = pd.Temperature
		}
		if pd.Temperature < low {
			low = pd.Temperature
		}
	}

	return &domain.Forecast{StationICAO: stationICAO, HighF: high, LowF: low}, nil
}

func (p *Provider) get(ctx context.Context, url string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/geo+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
