// Package recommend maps weather thresholds and risk scores to operational
// recommendations. Pure rule branching, deliberately kept out of the scoring
// path: it consumes fused output, it never feeds back into it.
package recommend

import (
	"fmt"

	"github.com/railmet/platform-risk-service/internal/domain"
)

// Audience identifies who a recommendation is addressed to.
type Audience string

const (
	AudienceOperations  Audience = "operations"
	AudiencePassengers  Audience = "passengers"
	AudienceMaintenance Audience = "maintenance"
)

// Recommendation is one actionable advisory.
type Recommendation struct {
	Severity domain.WarningLevel `json:"severity"`
	Audience Audience            `json:"audience"`
	Text     string              `json:"text"`
}

// For derives the recommendation list for the current fused reading, scored
// platforms, and overall warning level. Deterministic: same inputs, same list,
// same order.
func For(r domain.WeatherReading, platforms []domain.Platform, warning domain.WarningLevel) []Recommendation {
	var recs []Recommendation

	if r.PrecipitationMMH > 10 {
		recs = append(recs, Recommendation{
			Severity: domain.WarningAlert,
			Audience: AudienceOperations,
			Text:     "Heavy rain protocol: inspect platform drainage and activate slip hazard signage.",
		})
	} else if r.PrecipitationMMH > 2 {
		recs = append(recs, Recommendation{
			Severity: domain.WarningWatch,
			Audience: AudiencePassengers,
			Text:     "Wet platform surfaces expected; allow extra boarding time.",
		})
	}

	if r.WindSpeedMS > 20 {
		recs = append(recs, Recommendation{
			Severity: domain.WarningAlert,
			Audience: AudienceOperations,
			Text:     "Secure loose equipment on open platforms; consider suspending trolley service.",
		})
	} else if r.WindSpeedMS > 12 {
		recs = append(recs, Recommendation{
			Severity: domain.WarningAdvisory,
			Audience: AudienceOperations,
			Text:     "Strong wind: check canopy fixings and platform signage anchoring.",
		})
	}

	if r.TemperatureC > 38 {
		recs = append(recs, Recommendation{
			Severity: domain.WarningAdvisory,
			Audience: AudienceMaintenance,
			Text:     "Track buckling watch: schedule afternoon inspection of exposed sections.",
		})
	}
	if r.TemperatureC < 0 {
		recs = append(recs, Recommendation{
			Severity: domain.WarningAdvisory,
			Audience: AudienceMaintenance,
			Text:     "Frost conditions: de-ice platform edges and stairways before first service.",
		})
	}

	if r.PressureHPa < 1000 {
		recs = append(recs, Recommendation{
			Severity: domain.WarningWatch,
			Audience: AudienceOperations,
			Text:     "Deep low-pressure system approaching; monitor nowcasts for rapid deterioration.",
		})
	}

	for _, p := range platforms {
		if p.RiskScore >= 70 {
			recs = append(recs, Recommendation{
				Severity: domain.WarningAlert,
				Audience: AudienceOperations,
				Text:     fmt.Sprintf("Platform %s at high risk (%d/100): restrict access to essential staff.", p.Name, p.RiskScore),
			})
		}
	}

	if len(recs) == 0 && warning == domain.WarningInfo {
		recs = append(recs, Recommendation{
			Severity: domain.WarningInfo,
			Audience: AudienceOperations,
			Text:     "Conditions nominal; no operational restrictions recommended.",
		})
	}

	return recs
}
