package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// Platform is a railway station platform with static vulnerability attributes
// and a risk score recomputed wholesale each fusion cycle.
type Platform struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsRoofed bool   `json:"isRoofed"`
	// Exposure is the static vulnerability factor in [0, 1]. It contributes
	// nothing when the platform is roofed.
	Exposure  float64 `json:"exposure"`
	RiskScore int     `json:"riskScore"`
}

// DefaultPlatforms returns the built-in platform set used when no platform
// file is configured. Exposure values reflect canopy coverage and orientation
// at Valencia Nord.
func DefaultPlatforms() []Platform {
	return []Platform{
		{ID: "vlc-nord-1", Name: "Vía 1 (cabecera norte)", IsRoofed: true, Exposure: 0.20},
		{ID: "vlc-nord-2", Name: "Vía 2", IsRoofed: true, Exposure: 0.25},
		{ID: "vlc-nord-3", Name: "Vía 3", IsRoofed: false, Exposure: 0.55},
		{ID: "vlc-nord-5", Name: "Vía 5 (andén central)", IsRoofed: false, Exposure: 0.70},
		{ID: "vlc-nord-7", Name: "Vía 7 (lado playa de vías)", IsRoofed: false, Exposure: 0.90},
	}
}

// LoadPlatformsFile reads a platform catalog from a JSON file and validates
// static attributes. Risk scores in the file are ignored; they are recomputed
// on the first cycle.
func LoadPlatformsFile(path string) ([]Platform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read platforms file: %w", err)
	}

	var platforms []Platform
	if err := json.Unmarshal(data, &platforms); err != nil {
		return nil, fmt.Errorf("parse platforms file: %w", err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("platforms file %s contains no platforms", path)
	}

	for i := range platforms {
		p := &platforms[i]
		if p.ID == "" {
			return nil, fmt.Errorf("platform %d: missing id", i)
		}
		if p.Exposure < 0 || p.Exposure > 1 {
			return nil, fmt.Errorf("platform %s: exposure %.2f outside [0, 1]", p.ID, p.Exposure)
		}
		p.RiskScore = 0
	}
	return platforms, nil
}
