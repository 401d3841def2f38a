package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmartell/energiapp/internal/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUserRoundTrip(t *testing.T) {
	st := newTestStore(t)

	u := &User{Name: "Ana", Email: "ana@example.com", TariffRate: 0.18}
	if err := st.SaveUser(u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("SaveUser must assign an ID")
	}

	got, err := st.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "ana@example.com" || got.Role != "user" {
		t.Errorf("got %+v", got)
	}
	if got.Rate() != 0.18 {
		t.Errorf("Rate() = %f, want 0.18", got.Rate())
	}

	users, err := st.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("ListUsers returned %d users, want 1", len(users))
	}
}

func TestUserDefaultRate(t *testing.T) {
	u := &User{}
	if u.Rate() != engine.DefaultTariffRate {
		t.Errorf("unconfigured rate = %f, want default %f", u.Rate(), engine.DefaultTariffRate)
	}
}

func TestDeviceLifecycle(t *testing.T) {
	st := newTestStore(t)

	u := &User{Name: "Ana", Email: "ana@example.com"}
	if err := st.SaveUser(u); err != nil {
		t.Fatal(err)
	}

	d := &engine.Device{
		UserID:          u.ID,
		Name:            "Kitchen fridge",
		Type:            engine.TypeRefrigerator,
		RatedPowerWatts: 150,
	}
	if err := st.SaveDevice(d); err != nil {
		t.Fatalf("SaveDevice: %v", err)
	}
	if d.Status != engine.StatusActive {
		t.Errorf("new device status = %s, want active", d.Status)
	}

	if err := st.SetDeviceStatus(d.ID, engine.StatusInactive); err != nil {
		t.Fatalf("SetDeviceStatus: %v", err)
	}
	got, err := st.GetDevice(d.ID)
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.Status != engine.StatusInactive {
		t.Errorf("status after toggle = %s, want inactive", got.Status)
	}

	devices, err := st.ListDevices(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 {
		t.Fatalf("ListDevices returned %d, want 1", len(devices))
	}

	if err := st.DeleteDevice(d.ID); err != nil {
		t.Fatalf("DeleteDevice: %v", err)
	}
	if _, err := st.GetDevice(d.ID); err == nil {
		t.Error("GetDevice after delete should fail")
	}
}

func TestSetDeviceStatusMissing(t *testing.T) {
	st := newTestStore(t)
	if err := st.SetDeviceStatus("nope", engine.StatusActive); err == nil {
		t.Error("toggling a missing device should fail")
	}
}

func TestConsumptionPeriodBucketing(t *testing.T) {
	st := newTestStore(t)

	u := &User{Name: "Ana", Email: "ana@example.com"}
	if err := st.SaveUser(u); err != nil {
		t.Fatal(err)
	}

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []struct {
		hour int
		kwh  float64
		want engine.TariffPeriod
	}{
		{2, 1.0, engine.PeriodOffPeak},
		{11, 2.0, engine.PeriodPeak},
		{19, 3.0, engine.PeriodPeak},
		{15, 0.5, engine.PeriodStandard},
	}

	for _, r := range readings {
		rec, err := st.RecordConsumption(u.ID, "", day.Add(time.Duration(r.hour)*time.Hour), r.kwh)
		if err != nil {
			t.Fatalf("RecordConsumption: %v", err)
		}
		if rec.Period != r.want {
			t.Errorf("hour %d bucketed as %s, want %s", r.hour, rec.Period, r.want)
		}
	}

	totals, err := st.ConsumptionByPeriod(u.ID, day)
	if err != nil {
		t.Fatalf("ConsumptionByPeriod: %v", err)
	}
	if totals[engine.PeriodPeak] != 5.0 {
		t.Errorf("peak total = %f, want 5.0", totals[engine.PeriodPeak])
	}
	if totals[engine.PeriodOffPeak] != 1.0 {
		t.Errorf("off-peak total = %f, want 1.0", totals[engine.PeriodOffPeak])
	}
	if totals[engine.PeriodStandard] != 0.5 {
		t.Errorf("standard total = %f, want 0.5", totals[engine.PeriodStandard])
	}
}

func TestPredictionRoundTrip(t *testing.T) {
	st := newTestStore(t)

	u := &User{Name: "Ana", Email: "ana@example.com"}
	if err := st.SaveUser(u); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec, err := engine.NewPrediction(10, engine.HorizonDaily, now.AddDate(0, 0, 1), now)
	if err != nil {
		t.Fatal(err)
	}
	rec.UserID = u.ID
	rec.ModelType = "heuristic_fallback"

	if err := st.SavePrediction(&rec); err != nil {
		t.Fatalf("SavePrediction: %v", err)
	}

	got, err := st.GetPrediction(rec.ID)
	if err != nil {
		t.Fatalf("GetPrediction: %v", err)
	}
	if got.State != engine.StatePending || got.PredictedKWh != 10 {
		t.Errorf("got %+v", got)
	}
	if got.Precision != nil || got.RealKWh != nil {
		t.Error("pending record must have nil real/precision")
	}

	// Reconcile and persist the settled record.
	settled, err := engine.Reconcile(*got, 9.5)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SavePrediction(&settled); err != nil {
		t.Fatal(err)
	}

	got, err = st.GetPrediction(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != engine.StateValidated {
		t.Errorf("state = %s, want validated", got.State)
	}
	if got.Precision == nil || *got.Precision < 94 {
		t.Errorf("precision not persisted: %+v", got.Precision)
	}

	preds, err := st.ListPredictions(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != 1 {
		t.Errorf("ListPredictions returned %d, want 1", len(preds))
	}
}
