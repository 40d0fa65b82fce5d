package risk

import (
	"sort"
	"strings"
)

// Agrupaciones por régimen regional de clima: ciudades del mismo grupo
// tienden a tener temperaturas correlacionadas el mismo día.
var correlationGroups = map[string][]string{
	"Northeast":     {"New York", "NYC", "New York City", "Boston", "Philadelphia", "Philly", "LaGuardia", "LGA"},
	"Mid-Atlantic":  {"Washington", "Washington D.C.", "Washington DC", "Charlotte"},
	"Southeast":     {"Miami", "Jacksonville", "Tampa", "Atlanta"},
	"Great Lakes":   {"Chicago", "Detroit", "Minneapolis"},
	"South Central": {"Dallas", "Dallas-Fort Worth", "Houston", "Austin", "San Antonio", "Oklahoma City", "Nashville", "New Orleans"},
	"Mountain":      {"Denver", "Phoenix", "Las Vegas"},
	"Pacific":       {"Los Angeles", "San Francisco", "Seattle"},
}

// Clusters metro: ciudades que comparten área de estación meteorológica.
var metroClusters = map[string][]string{
	"NYC Metro":      {"New York", "NYC", "New York City", "LaGuardia", "LGA"},
	"Chicago Metro":  {"Chicago"},
	"DFW Metro":      {"Dallas", "Dallas-Fort Worth"},
	"South Florida":  {"Miami", "Tampa"},
	"Texas Triangle": {"Houston", "Austin", "San Antonio"},
	"SoCal":          {"Los Angeles"},
	"NorCal":         {"San Francisco"},
}

// lookupTable es una tabla de búsqueda determinística: match exacto primero,
// luego substring con las claves ordenadas de más larga a más corta y un
// guard de longitud mínima de 4 caracteres contra falsos positivos.
type lookupTable struct {
	exact   map[string]string
	ordered []string // claves ordenadas por longitud descendente, luego alfabético
}

func newLookupTable(groups map[string][]string) *lookupTable {
	t := &lookupTable{exact: make(map[string]string)}
	for group, cities := range groups {
		for _, city := range cities {
			t.exact[strings.ToLower(city)] = group
		}
	}
	for k := range t.exact {
		t.ordered = append(t.ordered, k)
	}
	sort.Slice(t.ordered, func(i, j int) bool {
		if len(t.ordered[i]) != len(t.ordered[j]) {
			return len(t.ordered[i]) > len(t.ordered[j])
		}
		return t.ordered[i] < t.ordered[j]
	})
	return t
}

const minSubstringLen = 4

func (t *lookupTable) lookup(city, fallback string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	if g, ok := t.exact[key]; ok {
		return g
	}
	if len(key) >= minSubstringLen {
		for _, k := range t.ordered {
			if len(k) < minSubstringLen {
				continue
			}
			if strings.Contains(key, k) || strings.Contains(k, key) {
				return t.exact[k]
			}
		}
	}
	return fallback
}

var (
	corrTable  = newLookupTable(correlationGroups)
	metroTable = newLookupTable(metroClusters)
)

// CorrelationGroup devuelve el grupo regional de una ciudad, u "Other".
func CorrelationGroup(city string) string {
	return corrTable.lookup(city, "Other")
}

// MetroStandalone marca una ciudad sin cluster metro. No es un cluster real:
// el cap por metro nunca se aplica entre ciudades Standalone.
const MetroStandalone = "Standalone"

// MetroCluster devuelve el cluster metro de una ciudad, o MetroStandalone.
func MetroCluster(city string) string {
	return metroTable.lookup(city, MetroStandalone)
}
