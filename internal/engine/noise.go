package engine

import "math/rand"

// Jitter returns a copy of the estimate with bounded multiplicative noise
// applied, for "live" dashboard views that should look like sensor data.
// amplitude is the maximum relative deviation (0.05 = ±5%). The estimator
// itself stays deterministic; this decorator is the only place randomness
// touches an estimate, and the caller supplies the rng.
func Jitter(est ConsumptionEstimate, amplitude float64, rng *rand.Rand) ConsumptionEstimate {
	if amplitude <= 0 || rng == nil {
		return est
	}

	noisy := est
	noisy.ByDevice = make(map[string]float64, len(est.ByDevice))
	noisy.ByType = make(map[DeviceType]float64, len(est.ByType))

	factor := func() float64 {
		return 1 + (rng.Float64()*2-1)*amplitude
	}

	total := 0.0
	for id, kwh := range est.ByDevice {
		v := kwh * factor()
		noisy.ByDevice[id] = v
		total += v
	}
	for t, kwh := range est.ByType {
		noisy.ByType[t] = kwh * factor()
	}

	if len(est.ByDevice) > 0 {
		noisy.EnergyKWh = total
	} else {
		noisy.EnergyKWh = est.EnergyKWh * factor()
	}
	noisy.CostEUR = noisy.EnergyKWh * est.RateEURKWh
	return noisy
}
