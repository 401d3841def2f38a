package engine

import (
	"errors"
	"fmt"
)

// DefaultTariffRate is the flat rate in EUR/kWh applied when a user has not
// configured their own tariff.
const DefaultTariffRate = 0.15

var (
	ErrInvalidPower   = errors.New("device rated power must be positive")
	ErrInvalidHorizon = errors.New("horizon hours must not be negative")
	ErrInvalidRate    = errors.New("tariff rate must not be negative")
)

// Estimate projects the energy and cost of a device set over horizonHours.
//
// Only active devices contribute. Each active device is assumed to run
// UsageHoursForType(device.Type) hours per day at its rated power, and the
// daily figure scales linearly with the horizon. The result is deterministic
// given its inputs; display jitter belongs in Jitter, never here.
//
// Zero active devices is not an error: the estimate is zero with empty
// breakdown maps.
func Estimate(devices []Device, horizonHours, ratePerKWh float64) (ConsumptionEstimate, error) {
	if horizonHours < 0 {
		return ConsumptionEstimate{}, ErrInvalidHorizon
	}
	if ratePerKWh < 0 {
		return ConsumptionEstimate{}, ErrInvalidRate
	}

	est := ConsumptionEstimate{
		HorizonHours: horizonHours,
		RateEURKWh:   ratePerKWh,
		ByDevice:     map[string]float64{},
		ByType:       map[DeviceType]float64{},
	}

	for _, d := range devices {
		if !d.Active() {
			continue
		}
		if d.RatedPowerWatts <= 0 {
			return ConsumptionEstimate{}, fmt.Errorf("device %q: %w", d.ID, ErrInvalidPower)
		}

		dailyKWh := (d.RatedPowerWatts / 1000.0) * UsageHoursForType(d.Type)
		kwh := dailyKWh * (horizonHours / 24.0)

		est.EnergyKWh += kwh
		est.ByDevice[d.ID] += kwh
		est.ByType[d.Type] += kwh
	}

	est.CostEUR = est.EnergyKWh * ratePerKWh
	return est, nil
}

// DailyCostForDevice returns the estimated daily running cost of a single
// device at the given rate, used to size per-device savings figures.
func DailyCostForDevice(d Device, ratePerKWh float64) float64 {
	dailyKWh := (d.RatedPowerWatts / 1000.0) * UsageHoursForType(d.Type)
	return dailyKWh * ratePerKWh
}
