package engine

import "time"

// DeviceType identifies the appliance category of a registered device
type DeviceType string

const (
	TypeRefrigerator    DeviceType = "refrigerator"
	TypeWashingMachine  DeviceType = "washing_machine"
	TypeDishwasher      DeviceType = "dishwasher"
	TypeOven            DeviceType = "oven"
	TypeMicrowave       DeviceType = "microwave"
	TypeTelevision      DeviceType = "television"
	TypeComputer        DeviceType = "computer"
	TypeAirConditioning DeviceType = "air_conditioning"
	TypeHeating         DeviceType = "heating"
	TypeLighting        DeviceType = "lighting"
	TypeRouter          DeviceType = "router"
	TypeConsole         DeviceType = "console"
	TypeDryer           DeviceType = "dryer"
	TypeWaterHeater     DeviceType = "water_heater"
	TypeOther           DeviceType = "other"
)

// DeviceStatus is the on/off state of a device
type DeviceStatus string

const (
	StatusActive   DeviceStatus = "active"
	StatusInactive DeviceStatus = "inactive"
)

// Device is a snapshot of a registered device as the estimator sees it.
// The registry owns the lifecycle; the engine only reads.
type Device struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Name            string       `json:"name"`
	Type            DeviceType   `json:"type"`
	RatedPowerWatts float64      `json:"rated_power_watts"`
	Status          DeviceStatus `json:"status"`
	Controllable    bool         `json:"controllable"`
	Efficiency      string       `json:"efficiency,omitempty"` // A+++ .. G
}

// Active reports whether the device currently draws power
func (d Device) Active() bool {
	return d.Status == StatusActive
}

// TariffPeriod is one of the three daily pricing bands
type TariffPeriod string

const (
	PeriodPeak     TariffPeriod = "peak"
	PeriodStandard TariffPeriod = "standard"
	PeriodOffPeak  TariffPeriod = "off-peak"
)

// ConsumptionEstimate is the result of projecting a device set over a horizon
type ConsumptionEstimate struct {
	HorizonHours float64                `json:"horizon_hours"`
	EnergyKWh    float64                `json:"energy_kwh"`
	CostEUR      float64                `json:"cost_eur"`
	RateEURKWh   float64                `json:"rate_eur_kwh"`
	ByDevice     map[string]float64     `json:"by_device"` // device ID -> kWh
	ByType       map[DeviceType]float64 `json:"by_type"`
}

// RecommendationCategory groups recommendations by the kind of action they suggest
type RecommendationCategory string

const (
	CategoryImmediate  RecommendationCategory = "immediate"
	CategoryScheduling RecommendationCategory = "scheduling"
	CategoryLongTerm   RecommendationCategory = "long_term"
)

// Recommendation is an advisory message with an estimated saving.
// Ephemeral: regenerated from the current device snapshot, never stored.
type Recommendation struct {
	Category        RecommendationCategory `json:"category"`
	Priority        int                    `json:"priority"` // 1 = highest
	Message         string                 `json:"message"`
	EstimatedSaving float64                `json:"estimated_saving_eur,omitempty"`
	DeviceID        string                 `json:"device_id,omitempty"`
}

// Horizon is the time span a prediction applies to
type Horizon string

const (
	HorizonHourly  Horizon = "hourly"
	HorizonDaily   Horizon = "daily"
	HorizonWeekly  Horizon = "weekly"
	HorizonMonthly Horizon = "monthly"
)

// PredictionState tracks a stored prediction through reconciliation
type PredictionState string

const (
	StatePending   PredictionState = "pending"
	StateValidated PredictionState = "validated"
	StateIncorrect PredictionState = "incorrect"
	StateExpired   PredictionState = "expired"
)

// PredictionRecord is the bookkeeping entry for one prediction, heuristic
// or externally computed. Precision is nil until a real value arrives.
type PredictionRecord struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id,omitempty"`
	DeviceID     string          `json:"device_id,omitempty"`
	PredictedKWh float64         `json:"predicted_kwh"`
	RealKWh      *float64        `json:"real_kwh,omitempty"`
	State        PredictionState `json:"state"`
	Horizon      Horizon         `json:"horizon"`
	ModelType    string          `json:"model_type,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	TargetTime   time.Time       `json:"target_time"`
	Precision    *float64        `json:"precision,omitempty"` // 0-100
}
