// Package domain models fused weather conditions and per-platform risk for
// railway station platforms.
//
// # Data Sources
//
// Current conditions are fetched from two providers each refresh cycle:
//
//	AEMET OpenData (primary, fusion weight 0.6) — Spanish state meteorology
//	agency observations for the station's municipality.
//	NASA POWER (secondary, fusion weight 0.4) — satellite-derived hourly
//	point data. POWER publishes with a lag of several days, so the adapter
//	walks an ordered list of date windows (most recent first) and uses the
//	first window that yields valid data.
//
// A short retrospective daily series (~5 days) from the ERA5 reanalysis
// archive feeds the historical baseline used for anomaly detection and
// fusion validation.
//
// # Sentinel Values
//
// Upstream APIs mark missing measurements with numeric sentinels (-999,
// -9999). Adapters reject those at the boundary and report the field as
// absent via [Sample]; nothing downstream of an adapter ever sees a
// sentinel. A successful SourceResult therefore contains only physically
// plausible values.
//
// # Units
//
// Temperature °C, humidity %, precipitation mm/h, wind speed m/s, wind
// direction degrees (0–360, meteorological convention), pressure hPa.
//
// # Anomaly Levels
//
// Deviation from the historical baseline is expressed in population
// standard deviations and bucketed with strict comparisons:
//
//	normalized > 3  extreme
//	normalized > 2  high
//	normalized > 1  moderate
//	otherwise       normal
//
// The overall level of a baseline is the most severe level across the four
// tracked parameters (temperature, precipitation, wind speed, pressure).
// Humidity is compared as a plain delta and never drives the overall level.
//
// # Confidence
//
// Fused readings carry a 0–100 confidence derived from how many sources
// succeeded and how far conditions sit from the baseline. Normal fusion
// output is clamped to [30, 95]; the emergency fallback (all sources and
// the baseline failed) is the only path that emits a lower value, fixed
// at 20.
package domain
