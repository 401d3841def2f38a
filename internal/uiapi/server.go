package uiapi

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmartell/energiapp/internal/engine"
	"github.com/jmartell/energiapp/internal/mlservice"
	"github.com/jmartell/energiapp/internal/store"
)

// liveJitterAmplitude bounds the simulated sensor noise on the live view.
const liveJitterAmplitude = 0.05

type Server struct {
	store *store.Store
	ml    *mlservice.Client
	rng   *rand.Rand
	now   func() time.Time
}

func NewServer(st *store.Store, ml *mlservice.Client) *Server {
	return &Server{
		store: st,
		ml:    ml,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for local development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Post("/users", s.handleCreateUser)
		r.Get("/users", s.handleListUsers)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", s.handleGetUser)
			r.Put("/", s.handleUpdateUser)
			r.Delete("/", s.handleDeleteUser)

			r.Get("/devices", s.handleListDevices)
			r.Post("/devices", s.handleCreateDevice)

			r.Get("/estimate", s.handleEstimate)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/live", s.handleLive)

			r.Post("/predictions", s.handleCreatePrediction)
			r.Get("/predictions", s.handleListPredictions)

			r.Post("/consumption", s.handleRecordConsumption)
			r.Get("/consumption/summary", s.handleConsumptionSummary)
		})

		r.Route("/devices/{deviceID}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.Put("/", s.handleUpdateDevice)
			r.Delete("/", s.handleDeleteDevice)
			r.Post("/toggle", s.handleToggleDevice)
		})

		r.Post("/predictions/{predictionID}/reconcile", s.handleReconcile)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": "1.0.0",
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var user store.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if user.Name == "" || user.Email == "" {
		respondError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	user.ID = ""
	if err := s.store.SaveUser(&user); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	existing, err := s.store.GetUser(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	var user store.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user.ID = id
	user.CreatedAt = existing.CreatedAt
	if err := s.store.SaveUser(&user); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if err := s.store.DeleteUser(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.ListDevices(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, devices)
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var device engine.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if device.RatedPowerWatts <= 0 {
		respondError(w, http.StatusBadRequest, "rated_power_watts must be positive")
		return
	}
	if device.Name == "" || device.Type == "" {
		respondError(w, http.StatusBadRequest, "name and type are required")
		return
	}

	device.ID = ""
	device.UserID = chi.URLParam(r, "userID")
	if err := s.store.SaveDevice(&device); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, device)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.store.GetDevice(chi.URLParam(r, "deviceID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "device not found")
		return
	}
	respondJSON(w, http.StatusOK, device)
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "deviceID")
	existing, err := s.store.GetDevice(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "device not found")
		return
	}

	var device engine.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if device.RatedPowerWatts <= 0 {
		respondError(w, http.StatusBadRequest, "rated_power_watts must be positive")
		return
	}

	device.ID = id
	device.UserID = existing.UserID
	// Status only changes via the toggle endpoint.
	device.Status = existing.Status
	if err := s.store.SaveDevice(&device); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, device)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "deviceID")
	if err := s.store.DeleteDevice(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

func (s *Server) handleToggleDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "deviceID")
	device, err := s.store.GetDevice(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "device not found")
		return
	}

	next := engine.StatusInactive
	if device.Status == engine.StatusInactive {
		next = engine.StatusActive
	}
	if err := s.store.SetDeviceStatus(id, next); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	device.Status = next
	respondJSON(w, http.StatusOK, device)
}

// userEstimate computes the deterministic estimate for a user's devices at
// their configured tariff rate.
func (s *Server) userEstimate(userID string, horizonHours float64) (*store.User, []engine.Device, engine.ConsumptionEstimate, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return nil, nil, engine.ConsumptionEstimate{}, err
	}
	devices, err := s.store.ListDevices(userID)
	if err != nil {
		return nil, nil, engine.ConsumptionEstimate{}, err
	}
	est, err := engine.Estimate(devices, horizonHours, user.Rate())
	if err != nil {
		return nil, nil, engine.ConsumptionEstimate{}, err
	}
	return user, devices, est, nil
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	horizon := 24.0
	if h := r.URL.Query().Get("hours"); h != "" {
		parsed, err := strconv.ParseFloat(h, 64)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid hours parameter")
			return
		}
		horizon = parsed
	}

	_, _, est, err := s.userEstimate(chi.URLParam(r, "userID"), horizon)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, est)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	_, devices, est, err := s.userEstimate(chi.URLParam(r, "userID"), 24)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, engine.Recommend(devices, est))
}

// handleLive serves the dashboard's "current consumption" card: the 1-hour
// estimate with bounded jitter so repeated polls look like sensor readings.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	_, _, est, err := s.userEstimate(chi.URLParam(r, "userID"), 1)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	noisy := engine.Jitter(est, liveJitterAmplitude, s.rng)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp":  s.now().Format(time.RFC3339),
		"energy_kwh": noisy.EnergyKWh,
		"cost_eur":   noisy.CostEUR,
		"by_device":  noisy.ByDevice,
	})
}

type predictionRequest struct {
	HoursAhead  int            `json:"hours_ahead"`
	DeviceType  string         `json:"device_type"`
	Horizon     engine.Horizon `json:"horizon"`
	Temperature float64        `json:"temperature"`
	Humidity    float64        `json:"humidity"`
}

type predictionResponse struct {
	Record   engine.PredictionRecord   `json:"record"`
	Forecast mlservice.PredictResponse `json:"forecast"`
}

func (s *Server) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	user, err := s.store.GetUser(userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HoursAhead <= 0 {
		req.HoursAhead = 24
	}
	if req.Horizon == "" {
		req.Horizon = engine.HorizonDaily
	}

	devices, err := s.store.ListDevices(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	totalPower := 0.0
	for _, d := range devices {
		if d.Active() {
			totalPower += d.RatedPowerWatts
		}
	}

	forecast, err := s.ml.PredictWithFallback(r.Context(), mlservice.PredictRequest{
		HoursAhead:       req.HoursAhead,
		DeviceType:       req.DeviceType,
		Temperature:      req.Temperature,
		Humidity:         req.Humidity,
		Occupancy:        user.Occupancy,
		HouseSize:        user.HouseSizeM2,
		TotalDevicePower: totalPower,
	}, devices, user.Rate(), s.now())
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	total := 0.0
	for _, p := range forecast.Predictions {
		total += p.PredictedConsumption
	}

	now := s.now()
	record, err := engine.NewPrediction(total, req.Horizon,
		now.Add(time.Duration(req.HoursAhead)*time.Hour), now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	record.UserID = userID
	record.ModelType = forecast.ModelType
	if err := s.store.SavePrediction(&record); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, predictionResponse{Record: record, Forecast: *forecast})
}

// handleListPredictions runs the expiry check lazily on read and persists
// any transition it causes.
func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := s.store.ListPredictions(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := s.now()
	for i, p := range preds {
		checked := engine.CheckExpiry(*p, now)
		if checked.State != p.State {
			if err := s.store.SavePrediction(&checked); err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		preds[i] = &checked
	}
	respondJSON(w, http.StatusOK, preds)
}

type reconcileRequest struct {
	RealKWh float64 `json:"real_kwh"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "predictionID")
	record, err := s.store.GetPrediction(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "prediction not found")
		return
	}

	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Expire first so a stale pending record cannot be settled.
	checked := engine.CheckExpiry(*record, s.now())
	settled, err := engine.Reconcile(checked, req.RealKWh)
	if err != nil {
		if checked.State != record.State {
			s.store.SavePrediction(&checked)
		}
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	if err := s.store.SavePrediction(&settled); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, settled)
}

type consumptionRequest struct {
	DeviceID  string    `json:"device_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	KWh       float64   `json:"kwh"`
}

func (s *Server) handleRecordConsumption(w http.ResponseWriter, r *http.Request) {
	var req consumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.KWh < 0 {
		respondError(w, http.StatusBadRequest, "kwh must not be negative")
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = s.now()
	}

	rec, err := s.store.RecordConsumption(chi.URLParam(r, "userID"), req.DeviceID, req.Timestamp, req.KWh)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleConsumptionSummary(w http.ResponseWriter, r *http.Request) {
	since := s.now().AddDate(0, -1, 0)
	if q := r.URL.Query().Get("since"); q != "" {
		parsed, err := time.Parse(time.RFC3339, q)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
		since = parsed
	}

	totals, err := s.store.ConsumptionByPeriod(chi.URLParam(r, "userID"), since)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"since":     since.Format(time.RFC3339),
		"by_period": totals,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
