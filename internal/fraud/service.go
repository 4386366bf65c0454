package fraud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/pkg/logger"
)

// ErrProfileNotFound is returned when an operation requires an existing
// fraud profile and none has been built for the user yet.
var ErrProfileNotFound = errors.New("fraud profile not found")

const (
	patternCacheTTL      = 5 * time.Minute
	patternCachePrefix   = "fraud:patterns:"
	defaultHistoryLimit  = 20
	shortLeadTimeDays    = 2.0
	profileFlagThreshold = 50.0
)

type service struct {
	repo  Repository
	model ModelScorer
	cache Cache
}

// NewService wires the fraud detection service. The cache is optional and
// may be nil.
func NewService(repo Repository, model ModelScorer, cache Cache) Service {
	return &service{repo: repo, model: model, cache: cache}
}

// DetectFraud scores a feature vector, preferring the remote model and
// falling back to the local rule set. It never fails.
func (s *service) DetectFraud(ctx context.Context, features FeatureVector) *FraudVerdict {
	verdict, ok := s.model.Score(ctx, features)
	if !ok {
		verdict = ScoreRuleBased(features)
	}

	verdictsTotal.WithLabelValues(verdict.Source, strconv.FormatBool(verdict.IsFraudulent)).Inc()

	if verdict.IsFraudulent {
		logger.WithContext(ctx).Warn("booking flagged as potentially fraudulent",
			zap.String("user_id", features.UserID),
			zap.Float64("probability", verdict.FraudProbability),
			zap.String("source", verdict.Source))
	}
	return verdict
}

// ScoreUser extracts features from the user's stored history and scores them.
func (s *service) ScoreUser(ctx context.Context, userID uuid.UUID) (*FraudVerdict, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load fraud profile: %w", err)
	}

	cancellations, err := s.repo.RecentCancellations(ctx, userID, patternHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load cancellation history: %w", err)
	}

	features := ExtractFeatures(profile, cancellations)
	if features.UserID == "" {
		features.UserID = userID.String()
	}
	return s.DetectFraud(ctx, features), nil
}

// CompareWithHotelPatterns compares the user's cancellation behavior against
// the hotel reference pattern. Results are cached briefly; the cache is
// invalidated whenever the profile is recomputed.
func (s *service) CompareWithHotelPatterns(ctx context.Context, userID uuid.UUID) (*PatternComparisonResult, error) {
	if cached := s.cachedComparison(ctx, userID); cached != nil {
		return cached, nil
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load fraud profile: %w", err)
	}

	var cancellations []*CancellationRecord
	if profile != nil {
		cancellations, err = s.repo.RecentCancellations(ctx, userID, patternHistoryWindow)
		if err != nil {
			return nil, fmt.Errorf("load cancellation history: %w", err)
		}
	}

	var result *PatternComparisonResult
	if profile != nil && len(cancellations) > 0 {
		if remote, ok := s.model.Compare(ctx, BuildComparisonRequest(profile, cancellations)); ok {
			result = remote
			patternComparisonsTotal.WithLabelValues(SourceModel).Inc()
		}
	}
	if result == nil {
		result = ComparePatterns(profile, cancellations)
		patternComparisonsTotal.WithLabelValues("fallback").Inc()
	}

	s.storeComparison(ctx, userID, result)
	return result, nil
}

// AnalyzeUserBehavior assembles the full admin-facing analysis for a user.
func (s *service) AnalyzeUserBehavior(ctx context.Context, userID uuid.UUID) (*BehaviorAnalysis, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load fraud profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	comparison, err := s.CompareWithHotelPatterns(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &BehaviorAnalysis{
		UserProfile: profile,
		CancellationPatterns: CancellationPatterns{
			UserID:              userID,
			RecentCancellations: profile.CancellationsLast7Days,
			AvgLeadTime:         profile.AverageLeadTime,
			CancellationRatio:   profile.CancellationRatio,
			RiskLevel:           RiskLevelFor(profile.CurrentFraudScore),
		},
		HotelComparison: comparison,
		Recommendations: buildRecommendations(profile),
	}, nil
}

func buildRecommendations(profile *UserFraudProfile) []Recommendation {
	recommendations := []Recommendation{}
	if profile.CancellationRatio > 0.5 {
		recommendations = append(recommendations, Recommendation{
			Priority: "high",
			Message:  "Consider requiring a higher deposit for this user",
		})
	}
	if profile.CancellationsLast24Hours > 1 {
		recommendations = append(recommendations, Recommendation{
			Priority: "high",
			Message:  "Temporarily restrict new bookings for this user",
		})
	}
	if profile.ShortLeadTimeBookings > 3 {
		recommendations = append(recommendations, Recommendation{
			Priority: "medium",
			Message:  "Require full payment upfront for short notice bookings",
		})
	}
	return recommendations
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserFraudProfile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load fraud profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *service) GetCancellations(ctx context.Context, userID uuid.UUID, limit int) ([]*CancellationRecord, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.repo.RecentCancellations(ctx, userID, limit)
}

func (s *service) GetFlaggedProfiles(ctx context.Context, limit, offset int) ([]*UserFraudProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListFlaggedProfiles(ctx, limit, offset)
}

func (s *service) GetStatistics(ctx context.Context) (*FraudStatistics, error) {
	return s.repo.GetStatistics(ctx)
}

func (s *service) RecordCancellation(ctx context.Context, record *CancellationRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return s.repo.CreateCancellation(ctx, record)
}

func (s *service) MarkCancellationSuspicious(ctx context.Context, id uuid.UUID, fraudScore float64) error {
	return s.repo.MarkCancellationSuspicious(ctx, id, fraudScore)
}

// UpdateUserProfile recomputes every profile aggregate from the user's
// booking and cancellation history, rescoring and reflagging along the way.
func (s *service) UpdateUserProfile(ctx context.Context, userID uuid.UUID) (*UserFraudProfile, error) {
	cancellations, err := s.repo.AllCancellations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cancellation history: %w", err)
	}
	bookings, err := s.repo.UserBookings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load booking history: %w", err)
	}

	profile := recomputeProfile(userID, bookings, cancellations, time.Now().UTC())

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("store fraud profile: %w", err)
	}
	s.invalidateComparison(ctx, userID)

	return profile, nil
}

// recomputeProfile derives all profile aggregates from raw history. Pure so
// the scoring heuristics are directly testable.
func recomputeProfile(userID uuid.UUID, bookings []*Booking, cancellations []*CancellationRecord, now time.Time) *UserFraudProfile {
	profile := &UserFraudProfile{
		UserID:             userID,
		TotalBookings:      len(bookings),
		TotalCancellations: len(cancellations),
		LastUpdated:        now,
	}
	if profile.TotalBookings > 0 {
		profile.CancellationRatio = float64(profile.TotalCancellations) / float64(profile.TotalBookings)
	}

	// Rolling windows and boat distribution.
	boatsCancelled := make(map[string]int)
	dates := make([]time.Time, 0, len(cancellations))
	for _, rec := range cancellations {
		age := now.Sub(rec.CancellationDate)
		if age <= 24*time.Hour {
			profile.CancellationsLast24Hours++
		}
		if age <= 7*24*time.Hour {
			profile.CancellationsLast7Days++
		}
		if age <= 30*24*time.Hour {
			profile.CancellationsLast30Days++
		}
		boatsCancelled[rec.BoatID.String()]++
		dates = append(dates, rec.CancellationDate)

		if profile.LastCancellationDate == nil || rec.CancellationDate.After(*profile.LastCancellationDate) {
			d := rec.CancellationDate
			profile.LastCancellationDate = &d
		}
	}
	profile.DistinctBoatsCancelled = len(boatsCancelled)
	profile.BoatCancellationDistribution = boatsCancelled

	if len(dates) >= 2 {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		var totalGap float64
		for i := 1; i < len(dates); i++ {
			totalGap += dates[i].Sub(dates[i-1]).Hours()
		}
		avg := totalGap / float64(len(dates)-1)
		profile.AverageTimeBetweenCancellations = &avg
	}

	// Booking-derived aggregates.
	boatsBooked := make(map[string]struct{})
	var adultsSum, childrenSum float64
	passengerTotals := make([]float64, 0, len(bookings))
	leadTimes := make([]float64, 0, len(bookings))
	for _, b := range bookings {
		boatsBooked[b.BoatID.String()] = struct{}{}
		adultsSum += float64(b.Adults)
		childrenSum += float64(b.Children)
		passengerTotals = append(passengerTotals, float64(b.Adults+b.Children))

		leadTime := b.StartDate.Sub(b.CreatedAt).Hours() / 24
		leadTimes = append(leadTimes, leadTime)
		if leadTime < shortLeadTimeDays {
			profile.ShortLeadTimeBookings++
		}

		if profile.LastBookingDate == nil || b.CreatedAt.After(*profile.LastBookingDate) {
			d := b.CreatedAt
			profile.LastBookingDate = &d
		}
	}
	profile.DistinctBoatsBooked = len(boatsBooked)

	if n := float64(len(bookings)); n > 0 {
		profile.AverageAdults = adultsSum / n
		profile.AverageChildren = childrenSum / n
		if profile.AverageChildren > 0 {
			profile.AdultChildrenRatio = profile.AverageAdults / profile.AverageChildren
		} else {
			profile.AdultChildrenRatio = profile.AverageAdults
		}
		profile.PassengerVariance = populationVariance(passengerTotals)
		profile.AverageLeadTime = mean(leadTimes)
		profile.LeadTimeVariance = populationVariance(leadTimes)
	}

	profile.CurrentFraudScore = heuristicScore(profile)
	if profile.CurrentFraudScore >= profileFlagThreshold {
		profile.IsFlagged = true
		profile.FlagReason = flagReasonFor(profile)
	}
	return profile
}

// heuristicScore is the 0-100 profile-level risk score.
func heuristicScore(p *UserFraudProfile) float64 {
	var score float64

	switch {
	case p.CancellationsLast24Hours >= 5:
		score += 40
	case p.CancellationsLast24Hours >= 3:
		score += 25
	case p.CancellationsLast24Hours >= 1:
		score += 10
	}

	if p.TotalBookings > 5 {
		switch {
		case p.CancellationRatio > 0.8:
			score += 20
		case p.CancellationRatio > 0.5:
			score += 10
		}
	}

	if p.AverageTimeBetweenCancellations != nil && *p.AverageTimeBetweenCancellations < 1 {
		score += 15
	}
	if p.PassengerVariance > 4 && p.TotalBookings > 3 {
		score += 10
	}
	if p.ShortLeadTimeBookings > 3 {
		score += 15
	}

	return math.Min(score, 100)
}

func flagReasonFor(p *UserFraudProfile) string {
	switch {
	case p.CancellationsLast24Hours >= 3:
		return "High volume of cancellations in 24 hours"
	case p.CancellationRatio > 0.8:
		return "Excessive cancellation ratio"
	case p.AverageTimeBetweenCancellations != nil && *p.AverageTimeBetweenCancellations < 1:
		return "Rapid-fire cancellation pattern"
	default:
		return "Multiple suspicious booking patterns"
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(values))
}

func (s *service) cachedComparison(ctx context.Context, userID uuid.UUID) *PatternComparisonResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.GetString(ctx, patternCachePrefix+userID.String())
	if err != nil || raw == "" {
		return nil
	}
	var result PatternComparisonResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	return &result
}

func (s *service) storeComparison(ctx context.Context, userID uuid.UUID, result *PatternComparisonResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.SetWithExpiration(ctx, patternCachePrefix+userID.String(), string(raw), patternCacheTTL); err != nil {
		logger.Warn("unable to cache pattern comparison", zap.Error(err))
	}
}

func (s *service) invalidateComparison(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, patternCachePrefix+userID.String()); err != nil {
		logger.Warn("unable to invalidate pattern comparison cache", zap.Error(err))
	}
}
