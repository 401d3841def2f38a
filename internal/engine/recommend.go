package engine

import "fmt"

// Saving factors per device type: the share of a device's daily running cost
// an immediate action is expected to recover. Types absent from the table
// never trigger an immediate recommendation.
var savingFactors = map[DeviceType]float64{
	TypeAirConditioning: 0.30,
	TypeHeating:         0.25,
	TypeWaterHeater:     0.20,
	TypeLighting:        0.20,
	TypeTelevision:      0.15,
	TypeComputer:        0.15,
	TypeConsole:         0.15,
	TypeRouter:          0.10,
}

// alwaysOnTypes draw standby power around the clock; their immediate advice
// is to cut standby, not to reduce duty cycle.
var alwaysOnTypes = map[DeviceType]bool{
	TypeTelevision: true,
	TypeComputer:   true,
	TypeConsole:    true,
	TypeRouter:     true,
}

// shiftableTypes benefit from moving their cycle into the off-peak band.
var shiftableTypes = map[DeviceType]bool{
	TypeWashingMachine: true,
	TypeDishwasher:     true,
}

const (
	// Air conditioning below this rating is not worth an immediate nag.
	acPowerThresholdWatts = 1500.0

	// Aggregate rated power above this suggests structural measures.
	capacityThresholdWatts = 8000.0

	// Projected monthly consumption above this is flagged as elevated.
	highMonthlyKWh = 300.0

	hoursPerMonth = 24.0 * 30.0

	// Daily saving at or above this makes an immediate recommendation top
	// priority.
	highSavingEURPerDay = 0.50
)

// Recommend derives an ordered list of advisory actions from a device
// snapshot and the estimate computed from that same snapshot. Passing an
// estimate computed from a different device set is a caller error; the
// generator does not cross-check the two.
//
// Rules run in a fixed order (immediate per device in input order, then
// scheduling, then long-term), so the output is deterministic. An empty
// slice means nothing qualified; no placeholder is fabricated.
func Recommend(devices []Device, est ConsumptionEstimate) []Recommendation {
	recs := []Recommendation{}

	rate := est.RateEURKWh
	if rate <= 0 {
		rate = DefaultTariffRate
	}

	// 1. Device-specific immediate actions.
	for _, d := range devices {
		if !d.Active() {
			continue
		}
		factor, ok := savingFactors[d.Type]
		if !ok {
			continue
		}
		if d.Type == TypeAirConditioning && d.RatedPowerWatts < acPowerThresholdWatts {
			continue
		}

		saving := DailyCostForDevice(d, rate) * factor
		priority := 2
		if saving >= highSavingEURPerDay {
			priority = 1
		}

		var msg string
		switch {
		case d.Type == TypeAirConditioning:
			msg = fmt.Sprintf("%s runs at %.0f W; raising the setpoint a couple of degrees could save around %.2f EUR per day", d.Name, d.RatedPowerWatts, saving)
		case alwaysOnTypes[d.Type]:
			msg = fmt.Sprintf("%s stays powered all day; switching it off at the plug when idle could save around %.2f EUR per day", d.Name, saving)
		default:
			msg = fmt.Sprintf("Reducing the use of %s could save around %.2f EUR per day", d.Name, saving)
		}

		recs = append(recs, Recommendation{
			Category:        CategoryImmediate,
			Priority:        priority,
			Message:         msg,
			EstimatedSaving: saving,
			DeviceID:        d.ID,
		})
	}

	// 2. Scheduling: shift flexible cycles into the off-peak band. The
	// benefit is qualitative; timing-shift savings are too fuzzy for a
	// point estimate.
	start, end := OffPeakWindow()
	for _, d := range devices {
		if !shiftableTypes[d.Type] {
			continue
		}
		recs = append(recs, Recommendation{
			Category: CategoryScheduling,
			Priority: 3,
			Message:  fmt.Sprintf("Run %s during the off-peak window (%02d:00-%02d:00) to pay the lowest tariff", d.Name, start, end),
			DeviceID: d.ID,
		})
	}

	// 3. Long-term: aggregate thresholds over the whole device set.
	totalWatts := 0.0
	for _, d := range devices {
		totalWatts += d.RatedPowerWatts
	}
	if totalWatts > capacityThresholdWatts {
		recs = append(recs, Recommendation{
			Category: CategoryLongTerm,
			Priority: 2,
			Message:  fmt.Sprintf("Total installed capacity is %.1f kW; consider solar panels or an insulation audit to cut the base load", totalWatts/1000.0),
		})
	}

	if est.HorizonHours > 0 {
		monthlyKWh := est.EnergyKWh * (hoursPerMonth / est.HorizonHours)
		if monthlyKWh > highMonthlyKWh {
			recs = append(recs, Recommendation{
				Category:        CategoryLongTerm,
				Priority:        2,
				Message:         fmt.Sprintf("Projected monthly consumption of %.0f kWh is above average; a full energy audit could recover around %.2f EUR per month", monthlyKWh, monthlyKWh*rate*0.2),
				EstimatedSaving: monthlyKWh * rate * 0.2,
			})
		}
	}

	return recs
}
