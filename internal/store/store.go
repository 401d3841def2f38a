package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmartell/energiapp/internal/engine"
	_ "modernc.org/sqlite"
)

// User is an account that owns devices. The tariff rate is optional; callers
// fall back to engine.DefaultTariffRate when it is zero.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"` // "user" or "admin"
	TariffRate  float64   `json:"tariff_rate,omitempty"`
	HouseSizeM2 float64   `json:"house_size_m2,omitempty"`
	Occupancy   int       `json:"occupancy,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Rate returns the user's tariff rate or the system default.
func (u *User) Rate() float64 {
	if u.TariffRate > 0 {
		return u.TariffRate
	}
	return engine.DefaultTariffRate
}

// ConsumptionRecord is one persisted energy reading, bucketed into its
// tariff period at write time.
type ConsumptionRecord struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	DeviceID  string              `json:"device_id,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	KWh       float64             `json:"kwh"`
	Period    engine.TariffPeriod `json:"period"`
}

// Store handles persistent storage using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT DEFAULT 'user',
		tariff_rate REAL DEFAULT 0,
		house_size_m2 REAL DEFAULT 0,
		occupancy INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		rated_power_watts REAL NOT NULL,
		status TEXT DEFAULT 'active',
		controllable INTEGER DEFAULT 0,
		efficiency TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS consumption (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		device_id TEXT,
		timestamp DATETIME NOT NULL,
		kwh REAL NOT NULL,
		period TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		device_id TEXT,
		predicted_kwh REAL NOT NULL,
		real_kwh REAL,
		state TEXT NOT NULL,
		horizon TEXT NOT NULL,
		model_type TEXT,
		created_at TEXT NOT NULL,
		target_time TEXT NOT NULL,
		precision REAL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_devices_user ON devices(user_id);
	CREATE INDEX IF NOT EXISTS idx_consumption_user_ts ON consumption(user_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_consumption_period ON consumption(period);
	CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id);
	CREATE INDEX IF NOT EXISTS idx_predictions_state ON predictions(state);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveUser saves or updates a user, assigning an ID when missing
func (s *Store) SaveUser(u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = "user"
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	query := `INSERT OR REPLACE INTO users
		(id, name, email, role, tariff_rate, house_size_m2, occupancy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, u.ID, u.Name, u.Email, u.Role, u.TariffRate,
		u.HouseSizeM2, u.Occupancy, u.CreatedAt.Format(time.RFC3339))
	return err
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(id string) (*User, error) {
	query := `SELECT id, name, email, role, tariff_rate, house_size_m2, occupancy, created_at
		FROM users WHERE id = ?`

	var u User
	var createdAt string
	err := s.db.QueryRow(query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role,
		&u.TariffRate, &u.HouseSizeM2, &u.Occupancy, &createdAt)
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}

// ListUsers retrieves all users, for the admin dashboard
func (s *Store) ListUsers() ([]*User, error) {
	query := `SELECT id, name, email, role, tariff_rate, house_size_m2, occupancy, created_at
		FROM users ORDER BY created_at`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.TariffRate,
			&u.HouseSizeM2, &u.Occupancy, &createdAt); err != nil {
			continue
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			u.CreatedAt = t
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// DeleteUser deletes a user and everything they own
func (s *Store) DeleteUser(id string) error {
	for _, q := range []string{
		`DELETE FROM predictions WHERE user_id = ?`,
		`DELETE FROM consumption WHERE user_id = ?`,
		`DELETE FROM devices WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := s.db.Exec(q, id); err != nil {
			return err
		}
	}
	return nil
}

// SaveDevice saves or updates a device, assigning an ID when missing
func (s *Store) SaveDevice(d *engine.Device) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = engine.StatusActive
	}

	query := `INSERT OR REPLACE INTO devices
		(id, user_id, name, type, rated_power_watts, status, controllable, efficiency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, d.ID, d.UserID, d.Name, string(d.Type),
		d.RatedPowerWatts, string(d.Status), boolToInt(d.Controllable),
		d.Efficiency, time.Now())
	return err
}

// GetDevice retrieves a single device by ID
func (s *Store) GetDevice(id string) (*engine.Device, error) {
	query := `SELECT id, user_id, name, type, rated_power_watts, status, controllable, efficiency
		FROM devices WHERE id = ?`

	var d engine.Device
	var devType, status string
	var controllable int
	var efficiency sql.NullString

	err := s.db.QueryRow(query, id).Scan(&d.ID, &d.UserID, &d.Name, &devType,
		&d.RatedPowerWatts, &status, &controllable, &efficiency)
	if err != nil {
		return nil, err
	}

	d.Type = engine.DeviceType(devType)
	d.Status = engine.DeviceStatus(status)
	d.Controllable = controllable == 1
	if efficiency.Valid {
		d.Efficiency = efficiency.String
	}
	return &d, nil
}

// ListDevices retrieves all devices for a user
func (s *Store) ListDevices(userID string) ([]engine.Device, error) {
	query := `SELECT id, user_id, name, type, rated_power_watts, status, controllable, efficiency
		FROM devices WHERE user_id = ? ORDER BY name`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := []engine.Device{}
	for rows.Next() {
		var d engine.Device
		var devType, status string
		var controllable int
		var efficiency sql.NullString

		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &devType,
			&d.RatedPowerWatts, &status, &controllable, &efficiency); err != nil {
			continue
		}

		d.Type = engine.DeviceType(devType)
		d.Status = engine.DeviceStatus(status)
		d.Controllable = controllable == 1
		if efficiency.Valid {
			d.Efficiency = efficiency.String
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// SetDeviceStatus flips a device between active and inactive. Status only
// changes through this explicit toggle, never as a side effect.
func (s *Store) SetDeviceStatus(id string, status engine.DeviceStatus) error {
	query := `UPDATE devices SET status = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.Exec(query, string(status), time.Now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteDevice deletes a device by ID
func (s *Store) DeleteDevice(id string) error {
	_, err := s.db.Exec(`DELETE FROM devices WHERE id = ?`, id)
	return err
}

// RecordConsumption persists one energy reading, assigning its tariff period
// from the reading's own timestamp.
func (s *Store) RecordConsumption(userID, deviceID string, ts time.Time, kwh float64) (*ConsumptionRecord, error) {
	rec := &ConsumptionRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		DeviceID:  deviceID,
		Timestamp: ts,
		KWh:       kwh,
		Period:    engine.ClassifyTime(ts),
	}

	query := `INSERT INTO consumption (id, user_id, device_id, timestamp, kwh, period)
		VALUES (?, ?, ?, ?, ?, ?)`

	var devID sql.NullString
	if deviceID != "" {
		devID = sql.NullString{String: deviceID, Valid: true}
	}

	_, err := s.db.Exec(query, rec.ID, rec.UserID, devID, rec.Timestamp.Format(time.RFC3339),
		rec.KWh, string(rec.Period))
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ConsumptionByPeriod sums a user's recorded kWh per tariff period since a
// cutoff time.
func (s *Store) ConsumptionByPeriod(userID string, since time.Time) (map[engine.TariffPeriod]float64, error) {
	query := `SELECT period, SUM(kwh) FROM consumption
		WHERE user_id = ? AND timestamp >= ? GROUP BY period`

	rows, err := s.db.Query(query, userID, since.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := map[engine.TariffPeriod]float64{}
	for rows.Next() {
		var period string
		var kwh float64
		if err := rows.Scan(&period, &kwh); err != nil {
			continue
		}
		totals[engine.TariffPeriod(period)] = kwh
	}
	return totals, rows.Err()
}

// SavePrediction saves or updates a prediction record, assigning an ID when
// missing
func (s *Store) SavePrediction(p *engine.PredictionRecord) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var realKWh, precision sql.NullFloat64
	if p.RealKWh != nil {
		realKWh = sql.NullFloat64{Float64: *p.RealKWh, Valid: true}
	}
	if p.Precision != nil {
		precision = sql.NullFloat64{Float64: *p.Precision, Valid: true}
	}

	var devID sql.NullString
	if p.DeviceID != "" {
		devID = sql.NullString{String: p.DeviceID, Valid: true}
	}

	query := `INSERT OR REPLACE INTO predictions
		(id, user_id, device_id, predicted_kwh, real_kwh, state, horizon, model_type, created_at, target_time, precision)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, p.ID, p.UserID, devID, p.PredictedKWh, realKWh,
		string(p.State), string(p.Horizon), p.ModelType,
		p.CreatedAt.Format(time.RFC3339), p.TargetTime.Format(time.RFC3339), precision)
	return err
}

// GetPrediction retrieves a prediction record by ID
func (s *Store) GetPrediction(id string) (*engine.PredictionRecord, error) {
	query := `SELECT id, user_id, device_id, predicted_kwh, real_kwh, state, horizon, model_type, created_at, target_time, precision
		FROM predictions WHERE id = ?`
	return s.scanPrediction(s.db.QueryRow(query, id))
}

// ListPredictions retrieves all prediction records for a user, newest first
func (s *Store) ListPredictions(userID string) ([]*engine.PredictionRecord, error) {
	query := `SELECT id, user_id, device_id, predicted_kwh, real_kwh, state, horizon, model_type, created_at, target_time, precision
		FROM predictions WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	preds := []*engine.PredictionRecord{}
	for rows.Next() {
		p, err := s.scanPrediction(rows)
		if err != nil {
			continue
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanPrediction(row rowScanner) (*engine.PredictionRecord, error) {
	var p engine.PredictionRecord
	var devID, modelType sql.NullString
	var realKWh, precision sql.NullFloat64
	var state, horizon, createdAt, targetTime string

	err := row.Scan(&p.ID, &p.UserID, &devID, &p.PredictedKWh, &realKWh,
		&state, &horizon, &modelType, &createdAt, &targetTime, &precision)
	if err != nil {
		return nil, err
	}

	p.State = engine.PredictionState(state)
	p.Horizon = engine.Horizon(horizon)
	if devID.Valid {
		p.DeviceID = devID.String
	}
	if modelType.Valid {
		p.ModelType = modelType.String
	}
	if realKWh.Valid {
		p.RealKWh = &realKWh.Float64
	}
	if precision.Valid {
		p.Precision = &precision.Float64
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, targetTime); err == nil {
		p.TargetTime = t
	}
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
