package pattern

import "time"

// Event is one entry in the static catalog of historical weather events with
// documented rail impact on the Valencia coastal corridor. Reference data
// only: never created or modified at runtime.
type Event struct {
	Name          string    `json:"name"`
	Date          time.Time `json:"date"`
	PeakPrecipMMH float64   `json:"peakPrecipitation"`
	PeakWindMS    float64   `json:"peakWind"`
	TempMinC      float64   `json:"tempMin"`
	TempMaxC      float64   `json:"tempMax"`
	Impact        string    `json:"impact"`
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Catalog returns the built-in historical event catalog, oldest first.
func Catalog() []Event {
	return []Event{
		{
			Name:          "Pantanada de Tous (gota fría)",
			Date:          date(1982, time.October, 20),
			PeakPrecipMMH: 45,
			PeakWindMS:    18,
			TempMinC:      14,
			TempMaxC:      22,
			Impact:        "Flooding cut the Valencia–Albacete line for weeks; several stations under water.",
		},
		{
			Name:          "Temporal de levante",
			Date:          date(2007, time.October, 12),
			PeakPrecipMMH: 38,
			PeakWindMS:    22,
			TempMinC:      15,
			TempMaxC:      21,
			Impact:        "Commuter services suspended for two days; ballast washouts on coastal sections.",
		},
		{
			Name:          "DANA del sureste",
			Date:          date(2019, time.September, 12),
			PeakPrecipMMH: 40,
			PeakWindMS:    24,
			TempMinC:      17,
			TempMaxC:      25,
			Impact:        "Cercanías network halted; platform flooding at low-lying stations.",
		},
		{
			Name:          "Borrasca Gloria",
			Date:          date(2020, time.January, 20),
			PeakPrecipMMH: 25,
			PeakWindMS:    28,
			TempMinC:      8,
			TempMaxC:      14,
			Impact:        "Catenary damage from wind-blown debris; speed restrictions across the corridor.",
		},
		{
			Name:          "Borrasca Filomena",
			Date:          date(2021, time.January, 8),
			PeakPrecipMMH: 5,
			PeakWindMS:    16,
			TempMinC:      -8,
			TempMaxC:      4,
			Impact:        "Ice on platforms and switches; station access restricted for safety.",
		},
		{
			Name:          "Ola de calor de agosto",
			Date:          date(2023, time.August, 10),
			PeakPrecipMMH: 0,
			PeakWindMS:    10,
			TempMinC:      33,
			TempMaxC:      44,
			Impact:        "Track buckling watch; afternoon speed restrictions and platform heat advisories.",
		},
	}
}
