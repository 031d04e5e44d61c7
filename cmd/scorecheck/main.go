// Command scorecheck scores a weather reading offline against a platform
// catalog and prints the per-platform risk scores, the matched historical
// event, and the derived warning level. Useful for calibrating thresholds
// without running the service.
//
// Usage:
//
//	go run ./cmd/scorecheck -reading reading.json [-platforms platforms.json] [-anomaly high]
//
// The reading file holds one JSON object with temperature, humidity,
// precipitation, windSpeed, windDirection and pressure fields.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/railmet/platform-risk-service/internal/domain"
	"github.com/railmet/platform-risk-service/internal/pattern"
	"github.com/railmet/platform-risk-service/internal/recommend"
	"github.com/railmet/platform-risk-service/internal/risk"
)

func main() {
	readingPath := flag.String("reading", "", "path to a JSON weather reading")
	platformsPath := flag.String("platforms", "", "path to a JSON platform catalog (default: built-in set)")
	anomaly := flag.String("anomaly", "normal", "anomaly level: normal|moderate|high|extreme")
	flag.Parse()

	if *readingPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*readingPath, *platformsPath, *anomaly); code != 0 {
		os.Exit(code)
	}
}

func run(readingPath, platformsPath, anomaly string) int {
	reading, err := loadReading(readingPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if errs := reading.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "invalid reading:", e)
		}
		return 1
	}

	platforms := domain.DefaultPlatforms()
	if platformsPath != "" {
		platforms, err = domain.LoadPlatformsFile(platformsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
	}

	level, err := parseLevel(anomaly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	scored := risk.ScoreAll(platforms, reading, level)
	assessment := pattern.Assess(reading, risk.MaxScore(scored), level, nil)

	fmt.Printf("reading: %.1f°C  %.0f%%  %.1fmm/h  %.1fm/s  %.0fhPa  (anomaly %s)\n\n",
		reading.TemperatureC, reading.HumidityPct, reading.PrecipitationMMH,
		reading.WindSpeedMS, reading.PressureHPa, level)

	for _, p := range scored {
		roof := "open"
		if p.IsRoofed {
			roof = "roofed"
		}
		fmt.Printf("  %-14s %-30s %-7s exposure=%.2f  risk=%3d\n",
			p.ID, p.Name, roof, p.Exposure, p.RiskScore)
	}

	fmt.Printf("\nwarning level: %s (effective score %d)\n", assessment.Warning, assessment.EffectiveScore)
	if assessment.Match != nil {
		fmt.Printf("closest historical event: %s (%s), %d/3 conditions\n",
			assessment.Match.Name, assessment.Match.Date.Format("2006-01-02"), assessment.Conditions)
		fmt.Printf("  impact then: %s\n", assessment.Match.Impact)
	} else {
		fmt.Println("no historical event matched")
	}

	fmt.Println("\nrecommendations:")
	for _, r := range recommend.For(reading, scored, assessment.Warning) {
		fmt.Printf("  [%s/%s] %s\n", r.Severity, r.Audience, r.Text)
	}
	return 0
}

func loadReading(path string) (domain.WeatherReading, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("read reading file: %w", err)
	}
	var r domain.WeatherReading
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.WeatherReading{}, fmt.Errorf("parse reading file: %w", err)
	}
	return r, nil
}

func parseLevel(s string) (domain.AnomalyLevel, error) {
	switch s {
	case "normal":
		return domain.AnomalyNormal, nil
	case "moderate":
		return domain.AnomalyModerate, nil
	case "high":
		return domain.AnomalyHigh, nil
	case "extreme":
		return domain.AnomalyExtreme, nil
	default:
		return domain.AnomalyNormal, fmt.Errorf("unknown anomaly level %q", s)
	}
}
