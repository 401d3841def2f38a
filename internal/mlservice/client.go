package mlservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmartell/energiapp/internal/engine"
)

const (
	defaultTimeout = 30 * time.Second

	// The service caps forecasts at one week ahead.
	maxHoursAhead = 168
)

// ModelHeuristicFallback marks predictions produced locally when the ML
// service is unreachable.
const ModelHeuristicFallback = "heuristic_fallback"

// Client calls the external ML prediction service
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the ML service at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
	}
}

// PredictRequest is the payload the ML service expects
type PredictRequest struct {
	HoursAhead       int     `json:"hours_ahead"`
	DeviceType       string  `json:"device_type"`
	Temperature      float64 `json:"temperature"`
	Humidity         float64 `json:"humidity"`
	Occupancy        int     `json:"occupancy"`
	HouseSize        float64 `json:"house_size"`
	TotalDevicePower float64 `json:"total_device_power"`
}

// PredictionPoint is one hourly forecast value
type PredictionPoint struct {
	Timestamp            time.Time `json:"timestamp"`
	PredictedConsumption float64   `json:"predicted_consumption"` // kWh
}

// PredictResponse is the ML service's forecast
type PredictResponse struct {
	Predictions []PredictionPoint `json:"predictions"`
	ModelType   string            `json:"model_type"`
}

// Predict requests a consumption forecast from the ML service
func (c *Client) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	if req.HoursAhead <= 0 {
		req.HoursAhead = 24
	}
	if req.HoursAhead > maxHoursAhead {
		req.HoursAhead = maxHoursAhead
	}
	if req.DeviceType == "" {
		req.DeviceType = "aggregate"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling ML service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, string(b))
	}

	var predResp PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&predResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &predResp, nil
}

// HeuristicForecast produces a forecast in the service's response shape from
// the deterministic estimator, used as the drop-in fallback when the ML
// service is unavailable.
func HeuristicForecast(devices []engine.Device, hoursAhead int, rate float64, now time.Time) (*PredictResponse, error) {
	if hoursAhead <= 0 {
		hoursAhead = 24
	}
	if hoursAhead > maxHoursAhead {
		hoursAhead = maxHoursAhead
	}

	points := make([]PredictionPoint, 0, hoursAhead)
	start := now.Truncate(time.Hour)
	for i := 0; i < hoursAhead; i++ {
		est, err := engine.Estimate(devices, 1, rate)
		if err != nil {
			return nil, err
		}
		points = append(points, PredictionPoint{
			Timestamp:            start.Add(time.Duration(i+1) * time.Hour),
			PredictedConsumption: est.EnergyKWh,
		})
	}

	return &PredictResponse{
		Predictions: points,
		ModelType:   ModelHeuristicFallback,
	}, nil
}

// PredictWithFallback tries the ML service and falls back to the heuristic
// forecast on any error. The returned ModelType tells callers which path
// produced the data.
func (c *Client) PredictWithFallback(ctx context.Context, req PredictRequest, devices []engine.Device, rate float64, now time.Time) (*PredictResponse, error) {
	if c != nil && c.baseURL != "" {
		resp, err := c.Predict(ctx, req)
		if err == nil {
			return resp, nil
		}
	}
	return HeuristicForecast(devices, req.HoursAhead, rate, now)
}
