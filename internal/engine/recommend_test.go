package engine

import (
	"reflect"
	"strings"
	"testing"
)

func TestRecommendRuleOrder(t *testing.T) {
	devices := []Device{
		{ID: "ac-1", Name: "Bedroom AC", Type: TypeAirConditioning, RatedPowerWatts: 2200, Status: StatusActive},
		{ID: "washer-1", Name: "Washer", Type: TypeWashingMachine, RatedPowerWatts: 2000, Status: StatusActive},
		{ID: "heater-1", Name: "Water heater", Type: TypeWaterHeater, RatedPowerWatts: 1800, Status: StatusActive},
		{ID: "oven-1", Name: "Oven", Type: TypeOven, RatedPowerWatts: 3000, Status: StatusActive},
	}
	est, err := Estimate(devices, 24, DefaultTariffRate)
	if err != nil {
		t.Fatal(err)
	}

	recs := Recommend(devices, est)
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}

	// Categories must appear in rule order: immediate, scheduling, long_term.
	lastRank := 0
	rank := map[RecommendationCategory]int{
		CategoryImmediate:  1,
		CategoryScheduling: 2,
		CategoryLongTerm:   3,
	}
	for i, rec := range recs {
		r, ok := rank[rec.Category]
		if !ok {
			t.Fatalf("rec %d has unknown category %q", i, rec.Category)
		}
		if r < lastRank {
			t.Errorf("rec %d (%s) out of rule order", i, rec.Category)
		}
		lastRank = r
	}

	// The 2.2kW AC is above the threshold and must get an immediate action.
	found := false
	for _, rec := range recs {
		if rec.DeviceID == "ac-1" && rec.Category == CategoryImmediate {
			found = true
			if rec.EstimatedSaving <= 0 {
				t.Error("AC recommendation should carry a saving estimate")
			}
		}
	}
	if !found {
		t.Error("expected an immediate recommendation for the AC")
	}

	// The washer must get a scheduling recommendation naming the off-peak window.
	found = false
	for _, rec := range recs {
		if rec.DeviceID == "washer-1" && rec.Category == CategoryScheduling {
			found = true
			if !strings.Contains(rec.Message, "00:00-08:00") {
				t.Errorf("scheduling message should name the off-peak window, got %q", rec.Message)
			}
		}
	}
	if !found {
		t.Error("expected a scheduling recommendation for the washer")
	}

	// 9kW total rated power is above capacity threshold.
	found = false
	for _, rec := range recs {
		if rec.Category == CategoryLongTerm && strings.Contains(rec.Message, "capacity") {
			found = true
		}
	}
	if !found {
		t.Error("expected a long-term capacity recommendation")
	}
}

func TestRecommendSmallACIgnored(t *testing.T) {
	devices := []Device{
		{ID: "ac-small", Name: "Portable AC", Type: TypeAirConditioning, RatedPowerWatts: 900, Status: StatusActive},
	}
	est, err := Estimate(devices, 24, DefaultTariffRate)
	if err != nil {
		t.Fatal(err)
	}

	for _, rec := range Recommend(devices, est) {
		if rec.DeviceID == "ac-small" {
			t.Errorf("AC below %v W must not trigger a recommendation", acPowerThresholdWatts)
		}
	}
}

func TestRecommendEmptyWhenNothingQualifies(t *testing.T) {
	devices := []Device{
		{ID: "lamp", Name: "Desk lamp", Type: TypeOther, RatedPowerWatts: 20, Status: StatusActive},
	}
	est, err := Estimate(devices, 24, DefaultTariffRate)
	if err != nil {
		t.Fatal(err)
	}

	recs := Recommend(devices, est)
	if len(recs) != 0 {
		t.Errorf("expected no recommendations, got %d", len(recs))
	}
}

func TestRecommendDeterministic(t *testing.T) {
	devices := []Device{
		{ID: "ac-1", Name: "AC", Type: TypeAirConditioning, RatedPowerWatts: 2000, Status: StatusActive},
		{ID: "tv-1", Name: "TV", Type: TypeTelevision, RatedPowerWatts: 120, Status: StatusActive},
		{ID: "dw-1", Name: "Dishwasher", Type: TypeDishwasher, RatedPowerWatts: 1500, Status: StatusActive},
	}
	est, err := Estimate(devices, 24, DefaultTariffRate)
	if err != nil {
		t.Fatal(err)
	}

	first := Recommend(devices, est)
	second := Recommend(devices, est)
	if !reflect.DeepEqual(first, second) {
		t.Error("Recommend is not deterministic for identical inputs")
	}
}

func TestRecommendHighMonthlyConsumption(t *testing.T) {
	// 2kW heating 5h/day = 10 kWh/day = 300+ kWh/month once combined with
	// the fridge.
	devices := []Device{
		{ID: "heat", Name: "Heating", Type: TypeHeating, RatedPowerWatts: 2500, Status: StatusActive},
		{ID: "fridge", Name: "Fridge", Type: TypeRefrigerator, RatedPowerWatts: 200, Status: StatusActive},
	}
	est, err := Estimate(devices, 24, DefaultTariffRate)
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, rec := range Recommend(devices, est) {
		if rec.Category == CategoryLongTerm && strings.Contains(rec.Message, "monthly consumption") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an elevated-consumption recommendation at %.1f kWh/day", est.EnergyKWh)
	}
}
