package kalshi

// Tipos del wire format de la API de Kalshi. Solo los campos que el scanner
// consume; el resto del payload se ignora al decodificar.

type seriesResponse struct {
	Series []series `json:"series"`
}

type series struct {
	Ticker   string `json:"ticker"`
	Category string `json:"category"`
	Title    string `json:"title"`
}

type eventsResponse struct {
	Events []event `json:"events"`
	Cursor string  `json:"cursor"`
}

type event struct {
	EventTicker string   `json:"event_ticker"`
	Title       string   `json:"title"`
	StrikeDate  string   `json:"strike_date"`
	Markets     []market `json:"markets"`
}

type market struct {
	Ticker      string `json:"ticker"`
	Title       string `json:"title"`
	YesSubTitle string `json:"yes_sub_title"`
	Status      string `json:"status"`
	CloseTime   string `json:"close_time"`
}

type orderbookResponse struct {
	Orderbook orderbook `json:"orderbook"`
}

// orderbook: niveles [precio_cents, cantidad] ordenados ascendente,
// el mejor bid es el último.
type orderbook struct {
	Yes [][2]int `json:"yes"`
	No  [][2]int `json:"no"`
}
