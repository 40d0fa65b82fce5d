package rules

import "github.com/jmorales/wxslate/internal/domain"

// Station is one entry of the city → settlement station reference table.
type Station struct {
	City       string
	Aliases    []string
	ICAO       string
	CLIProduct string // 3-letter issuedby code for the NWS CLI product
	Timezone   string // IANA
	Lat, Lon   float64
	Confidence domain.MappingConfidence
	Notes      []string
}

// stationDB maps Kalshi cities to the stations their markets settle against.
// Confidence is HIGH only where the station was confirmed against both the
// market rules page and the NWS CLI product.
var stationDB = []Station{
	{
		City: "New York", Aliases: []string{"NYC", "New York City"},
		ICAO: "KNYC", CLIProduct: "NYC", Timezone: "America/New_York",
		Lat: 40.783, Lon: -73.967,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Central Park observation site"},
	},
	{
		City: "Chicago", ICAO: "KMDW", CLIProduct: "MDW", Timezone: "America/Chicago",
		Lat: 41.786, Lon: -87.752,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Midway Airport; some markets may reference KORD"},
	},
	{
		City: "Miami", ICAO: "KMIA", CLIProduct: "MIA", Timezone: "America/New_York",
		Lat: 25.793, Lon: -80.290,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Miami International Airport"},
	},
	{
		City: "Austin", ICAO: "KAUS", CLIProduct: "AUS", Timezone: "America/Chicago",
		Lat: 30.195, Lon: -97.670,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Austin-Bergstrom International Airport"},
	},
	{
		City: "Los Angeles", Aliases: []string{"LA"},
		ICAO: "KLAX", CLIProduct: "LAX", Timezone: "America/Los_Angeles",
		Lat: 33.938, Lon: -118.389,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"LAX airport observation"},
	},
	{
		City: "Denver", ICAO: "KDEN", CLIProduct: "DEN", Timezone: "America/Denver",
		Lat: 39.856, Lon: -104.673,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Denver International Airport"},
	},
	{
		City: "Las Vegas", ICAO: "KLAS", CLIProduct: "LAS", Timezone: "America/Los_Angeles",
		Lat: 36.080, Lon: -115.152,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Harry Reid International Airport"},
	},
	{
		City: "Seattle", ICAO: "KSEA", CLIProduct: "SEA", Timezone: "America/Los_Angeles",
		Lat: 47.449, Lon: -122.309,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Seattle-Tacoma International Airport"},
	},
	{
		City: "Atlanta", ICAO: "KATL", CLIProduct: "ATL", Timezone: "America/New_York",
		Lat: 33.640, Lon: -84.427,
		Confidence: domain.ConfidenceHigh,
	},
	{
		City: "Boston", ICAO: "KBOS", CLIProduct: "BOS", Timezone: "America/New_York",
		Lat: 42.361, Lon: -71.011,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Logan International Airport"},
	},
	{
		City: "Philadelphia", Aliases: []string{"Philly"},
		ICAO: "KPHL", CLIProduct: "PHL", Timezone: "America/New_York",
		Lat: 39.872, Lon: -75.241,
		Confidence: domain.ConfidenceHigh,
	},
	{
		City: "Dallas", Aliases: []string{"Dallas-Fort Worth", "DFW"},
		ICAO: "KDFW", CLIProduct: "DFW", Timezone: "America/Chicago",
		Lat: 32.898, Lon: -97.040,
		Confidence: domain.ConfidenceHigh,
	},
	{
		City: "Houston", ICAO: "KHOU", CLIProduct: "HOU", Timezone: "America/Chicago",
		Lat: 29.645, Lon: -95.279,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Hobby Airport, not Bush Intercontinental"},
	},
	{
		City: "Phoenix", ICAO: "KPHX", CLIProduct: "PHX", Timezone: "America/Phoenix",
		Lat: 33.434, Lon: -112.012,
		Confidence: domain.ConfidenceHigh,
		Notes:      []string{"Arizona does not observe DST"},
	},
	{
		City: "Minneapolis", ICAO: "KMSP", CLIProduct: "MSP", Timezone: "America/Chicago",
		Lat: 44.883, Lon: -93.229,
		Confidence: domain.ConfidenceHigh,
	},
	{
		City: "Washington", Aliases: []string{"Washington D.C.", "Washington DC", "DC"},
		ICAO: "KDCA", CLIProduct: "DCA", Timezone: "America/New_York",
		Lat: 38.852, Lon: -77.034,
		Confidence: domain.ConfidenceMed,
		Notes:      []string{"Market rules ambiguous between DCA and IAD"},
	},
	{
		City: "San Francisco", Aliases: []string{"SF"},
		ICAO: "KSFO", CLIProduct: "SFO", Timezone: "America/Los_Angeles",
		Lat: 37.619, Lon: -122.375,
		Confidence: domain.ConfidenceHigh,
	},
	{
		City: "New Orleans", ICAO: "KMSY", CLIProduct: "MSY", Timezone: "America/Chicago",
		Lat: 29.993, Lon: -90.258,
		Confidence: domain.ConfidenceHigh,
	},
}

// LookupStation returns the station entry for a city, matching the canonical
// name first and aliases second. Case-insensitive exact matches only; fuzzy
// matching belongs to the risk manager's group lookup, not here.
func LookupStation(city string) (Station, bool) {
	key := normalize(city)
	for _, st := range stationDB {
		if normalize(st.City) == key {
			return st, true
		}
	}
	for _, st := range stationDB {
		for _, alias := range st.Aliases {
			if normalize(alias) == key {
				return st, true
			}
		}
	}
	return Station{}, false
}
