package engine

// defaultUsageHours is assumed for any device type without an entry in the
// usage profile. It is a deliberate default, not a fallthrough.
const defaultUsageHours = 4.0

// usageHoursPerDay maps a device type to its assumed average daily hours of
// operation. This is the single tunable behind every wattage-to-kWh
// projection; all call sites go through UsageHoursForType.
var usageHoursPerDay = map[DeviceType]float64{
	TypeRefrigerator:    24,
	TypeWashingMachine:  1,
	TypeDishwasher:      1,
	TypeOven:            0.5,
	TypeMicrowave:       0.3,
	TypeTelevision:      6,
	TypeComputer:        8,
	TypeAirConditioning: 6,
	TypeHeating:         5,
	TypeLighting:        6,
	TypeRouter:          24,
	TypeConsole:         2,
	TypeDryer:           1,
	TypeWaterHeater:     3,
	TypeOther:           defaultUsageHours,
}

// UsageHoursForType returns the assumed daily usage hours for a device type,
// falling back to defaultUsageHours for unknown types.
func UsageHoursForType(t DeviceType) float64 {
	if hours, ok := usageHoursPerDay[t]; ok {
		return hours
	}
	return defaultUsageHours
}
