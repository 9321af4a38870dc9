// Package scoring holds the appliance health heuristics: health score, monthly
// energy loss, recommendations and service pricing. Everything here is pure.
package scoring

import (
	"fmt"
	"math"
	"strings"
)

// ApplianceType is the appliance category as sent by clients. Unknown values are
// kept verbatim and fall back to defaults wherever a per-type constant is needed.
type ApplianceType string

const (
	TypeAC             ApplianceType = "AC"
	TypeFridge         ApplianceType = "Fridge"
	TypeWashingMachine ApplianceType = "Washing Machine"
)

const (
	ServiceOneTime = "one_time"
	ServiceAMC     = "amc"
)

const (
	// NeedsServiceThreshold is the score below which an appliance needs service
	NeedsServiceThreshold = 60
	// PostServiceHealthScore is assigned when a technician completes a job
	PostServiceHealthScore = 95
	// DefaultServiceAmount applies to unknown appliance/service combinations
	DefaultServiceAmount = 799.0
	// DefaultApplianceAge is assumed when the purchase year is unknown
	DefaultApplianceAge = 5
	// BaselineUsageHours normalises the energy loss usage multiplier
	BaselineUsageHours = 8.0
	// SavingsRatio is the share of energy loss recovered by a service
	SavingsRatio = 0.7
)

var baseRates = map[ApplianceType]float64{
	TypeAC:             1500,
	TypeFridge:         400,
	TypeWashingMachine: 300,
}

const defaultBaseRate = 500.0

var maintenanceTips = map[ApplianceType]string{
	TypeAC:             "💡 Tip: Clean filters monthly and service annually for optimal cooling.",
	TypeFridge:         "💡 Tip: Defrost regularly and check door seals to save energy.",
	TypeWashingMachine: "💡 Tip: Clean drum filter monthly to prevent clogging.",
}

const amcUpsell = "Consider our Annual Maintenance Contract (AMC) for worry-free upkeep."

// ParseApplianceType normalises common spellings onto the canonical types
func ParseApplianceType(s string) ApplianceType {
	trimmed := strings.TrimSpace(s)
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(trimmed))
	switch key {
	case "ac", "airconditioner":
		return TypeAC
	case "fridge", "refrigerator":
		return TypeFridge
	case "washingmachine":
		return TypeWashingMachine
	}
	return ApplianceType(trimmed)
}

// HealthScore estimates appliance condition on a 0-100 scale; lower means more
// urgent. A zero monthsSinceService or usage adds no penalty, a zero
// yearOfPurchase is treated as DefaultApplianceAge years old.
func HealthScore(t ApplianceType, monthsSinceService int, usageHoursPerDay float64, yearOfPurchase, currentYear int) int {
	score := 100

	if monthsSinceService > 0 {
		score -= min(monthsSinceService*3, 40)
	}

	age := DefaultApplianceAge
	if yearOfPurchase != 0 {
		age = currentYear - yearOfPurchase
	}
	score -= min(age*2, 20)

	switch {
	case usageHoursPerDay > 12:
		score -= 20
	case usageHoursPerDay > 8:
		score -= 10
	}

	switch t {
	case TypeAC:
		if monthsSinceService > 12 {
			score -= 15
		}
	case TypeFridge:
		if monthsSinceService > 18 {
			score -= 10
		}
	}

	return max(0, min(100, score))
}

// EnergyLoss estimates the monthly cost of inefficient operation, rounded to
// two decimals. A zero usage is treated as the 8 hour baseline.
func EnergyLoss(t ApplianceType, healthScore int, usageHoursPerDay float64) float64 {
	base, ok := baseRates[t]
	if !ok {
		base = defaultBaseRate
	}

	usage := usageHoursPerDay
	if usage == 0 {
		usage = BaselineUsageHours
	}

	loss := base * float64(100-healthScore) / 100 * (usage / BaselineUsageHours)
	return Round2(loss)
}

// EstimatedSavings is the share of energyLoss a service is expected to recover
func EstimatedSavings(energyLoss float64) float64 {
	return Round2(energyLoss * SavingsRatio)
}

// Recommendations returns the tier message(s), then the per-type tip, then the
// AMC upsell. The order is part of the contract.
func Recommendations(t ApplianceType, healthScore int, monthsSinceService int) []string {
	var recs []string

	switch {
	case healthScore < 40:
		recs = append(recs,
			fmt.Sprintf("🚨 Urgent: Your %s needs immediate servicing to avoid breakdown.", t),
			"Schedule a technician visit within 3 days.",
		)
	case healthScore < NeedsServiceThreshold:
		recs = append(recs,
			fmt.Sprintf("⚠️ Your %s is running inefficiently.", t),
			"Book a service within 2 weeks to restore performance.",
		)
	default:
		recs = append(recs, fmt.Sprintf("✅ Your %s is in good condition.", t))
	}

	if tip, ok := maintenanceTips[t]; ok {
		recs = append(recs, tip)
	}

	if monthsSinceService > 12 {
		recs = append(recs, amcUpsell)
	}

	return recs
}

// Round2 rounds half away from zero to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
