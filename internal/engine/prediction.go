package engine

import (
	"errors"
	"time"
)

var (
	ErrInvalidPrediction  = errors.New("predicted energy must not be negative")
	ErrInvalidHorizonType = errors.New("unknown prediction horizon")
	ErrInvalidReal        = errors.New("real energy must not be negative")
	ErrInvalidState       = errors.New("prediction is not pending")
)

// Validation thresholds over computed precision (0-100).
const (
	precisionValidated = 85.0
	precisionIncorrect = 60.0
)

// NewPrediction creates a pending record for a predicted energy value.
func NewPrediction(predictedKWh float64, horizon Horizon, target time.Time, now time.Time) (PredictionRecord, error) {
	if predictedKWh < 0 {
		return PredictionRecord{}, ErrInvalidPrediction
	}
	if _, err := expiryDeadline(target, horizon); err != nil {
		return PredictionRecord{}, err
	}
	return PredictionRecord{
		PredictedKWh: predictedKWh,
		State:        StatePending,
		Horizon:      horizon,
		CreatedAt:    now,
		TargetTime:   target,
	}, nil
}

// Reconcile records the later-observed real value and settles the record.
//
// Precision is max(0, 100 - |real-predicted|/real*100). At or above 85 the
// record is validated, below 60 it is incorrect, and the middle band stays
// pending awaiting more data. A real value of exactly zero yields precision
// 100 when the prediction was also zero and 0 otherwise.
//
// Only pending records can be reconciled; anything else (including expired)
// is rejected with ErrInvalidState and returned unchanged.
func Reconcile(rec PredictionRecord, realKWh float64) (PredictionRecord, error) {
	if realKWh < 0 {
		return rec, ErrInvalidReal
	}
	if rec.State != StatePending {
		return rec, ErrInvalidState
	}

	var precision float64
	switch {
	case realKWh == 0 && rec.PredictedKWh == 0:
		precision = 100
	case realKWh == 0:
		precision = 0
	default:
		errPct := abs(realKWh-rec.PredictedKWh) / realKWh * 100
		precision = max(0, 100-errPct)
	}

	rec.RealKWh = &realKWh
	rec.Precision = &precision

	switch {
	case precision >= precisionValidated:
		rec.State = StateValidated
	case precision < precisionIncorrect:
		rec.State = StateIncorrect
	}
	return rec, nil
}

// CheckExpiry marks the record expired once now has passed the target time
// plus the horizon's grace window. Expired is sticky; the check is
// idempotent and safe to run lazily on every read.
func CheckExpiry(rec PredictionRecord, now time.Time) PredictionRecord {
	if rec.State == StateExpired {
		return rec
	}
	deadline, err := expiryDeadline(rec.TargetTime, rec.Horizon)
	if err != nil {
		return rec
	}
	if now.After(deadline) {
		rec.State = StateExpired
	}
	return rec
}

// expiryDeadline returns the last instant a record can still be settled.
// Each horizon has its own grace window past the target time.
func expiryDeadline(target time.Time, horizon Horizon) (time.Time, error) {
	switch horizon {
	case HorizonHourly:
		return target.Add(2 * time.Hour), nil
	case HorizonDaily:
		return target.AddDate(0, 0, 1), nil
	case HorizonWeekly:
		return target.AddDate(0, 0, 7), nil
	case HorizonMonthly:
		return target.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, ErrInvalidHorizonType
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
