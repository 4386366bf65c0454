package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/pkg/logger"
)

// GatewayConfig holds the tunables for the remote model gateway.
type GatewayConfig struct {
	BaseURL        string
	HealthTimeout  time.Duration
	RequestTimeout time.Duration
	ProbeInterval  time.Duration
	RecheckDelay   time.Duration
}

// RemoteProfileSummary is the profile subset sent to the remote comparator.
type RemoteProfileSummary struct {
	CancellationRatio  float64 `json:"cancellationRatio"`
	TotalCancellations int     `json:"totalCancellations"`
	TotalBookings      int     `json:"totalBookings"`
	AverageLeadTime    float64 `json:"averageLeadTime"`
}

// RemoteCancellation is the cancellation subset sent to the remote comparator.
type RemoteCancellation struct {
	CancellationDate    time.Time       `json:"cancellationDate"`
	TimeBeforeDeparture float64         `json:"timeBeforeDeparture"`
	TimeSinceBooking    float64         `json:"timeSinceBooking"`
	OriginalBookingData BookingSnapshot `json:"originalBookingData"`
}

// PatternComparisonRequest is the payload for the remote comparator endpoint.
type PatternComparisonRequest struct {
	UserID        string               `json:"userId"`
	UserProfile   RemoteProfileSummary `json:"userProfile"`
	Cancellations []RemoteCancellation `json:"cancellations"`
}

// ModelGateway mediates all traffic to the remote scoring model. It tracks
// the model's availability so callers can skip the network round trip and
// fall back to local scoring when the model is down.
//
// The gateway starts unavailable and only flips after a successful health
// check. Connectivity failures during scoring flip it back and schedule a
// one-shot recheck; a background probe re-tests on a fixed interval either
// way. All methods report a miss instead of returning an error.
type ModelGateway struct {
	cfg    GatewayConfig
	client *http.Client

	mu        sync.RWMutex
	available bool
	recheck   *time.Timer

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewModelGateway creates a gateway in the unavailable state. Call Start to
// run the initial health check and the background probe.
func NewModelGateway(cfg GatewayConfig) *ModelGateway {
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 3 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 30 * time.Second
	}
	if cfg.RecheckDelay <= 0 {
		cfg.RecheckDelay = 5 * time.Second
	}
	return &ModelGateway{
		cfg:    cfg,
		client: &http.Client{},
		stop:   make(chan struct{}),
	}
}

// Start launches the background availability probe. The initial health check
// runs inside the probe goroutine so startup is never blocked by a dead model.
func (g *ModelGateway) Start() {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		g.CheckHealth(context.Background())

		ticker := time.NewTicker(g.cfg.ProbeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-g.stop:
				return
			case <-ticker.C:
				g.CheckHealth(context.Background())
			}
		}
	}()
}

// Stop terminates the probe goroutine and any pending recheck.
func (g *ModelGateway) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })

	g.mu.Lock()
	if g.recheck != nil {
		g.recheck.Stop()
		g.recheck = nil
	}
	g.mu.Unlock()

	g.wg.Wait()
}

// Available reports whether the remote model passed its last health check.
func (g *ModelGateway) Available() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.available
}

// CheckHealth probes GET /status and updates availability. The model is
// considered healthy only when it answers {"status":"active"} in time.
func (g *ModelGateway) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/status", nil)
	if err != nil {
		g.setAvailable(false)
		return false
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.setAvailable(false)
		return false
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	healthy := resp.StatusCode == http.StatusOK &&
		json.NewDecoder(resp.Body).Decode(&body) == nil &&
		body.Status == "active"

	g.setAvailable(healthy)
	return healthy
}

// Score asks the remote model to score a feature vector. The second return
// value is false when no remote verdict could be obtained and the caller
// should fall back to local scoring.
func (g *ModelGateway) Score(ctx context.Context, features FeatureVector) (*FraudVerdict, bool) {
	if !g.Available() {
		return nil, false
	}

	var response struct {
		FraudProbability *float64 `json:"fraudProbability"`
		IsFraudulent     bool     `json:"isFraudulent"`
		Confidence       *float64 `json:"confidence"`
		Factors          []string `json:"factors"`
		Message          string   `json:"message"`
	}
	if !g.post(ctx, "/predict", features, &response) {
		return nil, false
	}
	if response.FraudProbability == nil {
		logger.Warn("model returned malformed prediction, ignoring",
			zap.String("url", g.cfg.BaseURL))
		return nil, false
	}

	verdict := &FraudVerdict{
		IsFraudulent:      response.IsFraudulent,
		FraudProbability:  *response.FraudProbability,
		Confidence:        0.8,
		Factors:           response.Factors,
		Message:           response.Message,
		Source:            SourceModel,
		AnalysisTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if response.Confidence != nil {
		verdict.Confidence = *response.Confidence
	}
	if verdict.Factors == nil {
		verdict.Factors = []string{}
	}
	if verdict.Message == "" {
		if verdict.IsFraudulent {
			verdict.Message = messageFraudulent
		} else {
			verdict.Message = messageLegitimate
		}
	}
	return verdict, true
}

// Compare asks the remote comparator to run the hotel pattern comparison.
// The second return value is false when the caller should fall back to the
// local comparator.
func (g *ModelGateway) Compare(ctx context.Context, request *PatternComparisonRequest) (*PatternComparisonResult, bool) {
	if !g.Available() {
		return nil, false
	}

	var result PatternComparisonResult
	if !g.post(ctx, "/compare-hotel-patterns", request, &result) {
		return nil, false
	}
	return &result, true
}

// post performs one POST round trip within the request timeout. A transport
// error marks the model unavailable and schedules a one-shot recheck; a bad
// status or undecodable body only reports a miss.
func (g *ModelGateway) post(ctx context.Context, path string, payload, out interface{}) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("unable to encode model request", zap.String("path", path), zap.Error(err))
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Warn("model unreachable, switching to fallback",
			zap.String("path", path), zap.Error(err))
		g.setAvailable(false)
		g.scheduleRecheck()
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("model request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.Warn("unable to decode model response",
			zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

func (g *ModelGateway) setAvailable(available bool) {
	g.mu.Lock()
	changed := g.available != available
	g.available = available
	g.mu.Unlock()

	if available {
		modelAvailableGauge.Set(1)
	} else {
		modelAvailableGauge.Set(0)
	}

	if changed {
		if available {
			logger.Info("fraud model is available", zap.String("url", g.cfg.BaseURL))
		} else {
			logger.Warn("fraud model is unavailable", zap.String("url", g.cfg.BaseURL))
		}
	}
}

// scheduleRecheck arms a single delayed health check after a connectivity
// failure, replacing any recheck already pending.
func (g *ModelGateway) scheduleRecheck() {
	g.mu.Lock()
	defer g.mu.Unlock()

	select {
	case <-g.stop:
		return
	default:
	}

	if g.recheck != nil {
		g.recheck.Stop()
	}
	g.recheck = time.AfterFunc(g.cfg.RecheckDelay, func() {
		g.CheckHealth(context.Background())
	})
}

// BuildComparisonRequest shapes the profile and history into the remote
// comparator payload.
func BuildComparisonRequest(profile *UserFraudProfile, cancellations []*CancellationRecord) *PatternComparisonRequest {
	recent := cancellations
	if len(recent) > patternHistoryWindow {
		recent = recent[:patternHistoryWindow]
	}

	remote := make([]RemoteCancellation, 0, len(recent))
	for _, rec := range recent {
		remote = append(remote, RemoteCancellation{
			CancellationDate:    rec.CancellationDate,
			TimeBeforeDeparture: rec.TimeBeforeDeparture,
			TimeSinceBooking:    rec.TimeSinceBooking,
			OriginalBookingData: rec.OriginalBooking,
		})
	}

	return &PatternComparisonRequest{
		UserID: profile.UserID.String(),
		UserProfile: RemoteProfileSummary{
			CancellationRatio:  profile.CancellationRatio,
			TotalCancellations: profile.TotalCancellations,
			TotalBookings:      profile.TotalBookings,
			AverageLeadTime:    profile.AverageLeadTime,
		},
		Cancellations: remote,
	}
}
