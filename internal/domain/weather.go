package domain

import "time"

// Observation es la última observación de temperatura de una estación.
type Observation struct {
	StationICAO string    `json:"station_icao"`
	TempF       float64   `json:"temp_f"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Forecast es el forecast vigente de una estación para el día objetivo.
type Forecast struct {
	StationICAO string  `json:"station_icao"`
	HighF       float64 `json:"high_f"`
	LowF        float64 `json:"low_f"`
}
