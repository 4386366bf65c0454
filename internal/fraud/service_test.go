package fraud

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*UserFraudProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserFraudProfile), args.Error(1)
}

func (m *MockRepository) UpsertProfile(ctx context.Context, profile *UserFraudProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockRepository) ListFlaggedProfiles(ctx context.Context, limit, offset int) ([]*UserFraudProfile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*UserFraudProfile), args.Error(1)
}

func (m *MockRepository) GetStatistics(ctx context.Context) (*FraudStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FraudStatistics), args.Error(1)
}

func (m *MockRepository) CreateCancellation(ctx context.Context, record *CancellationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository) MarkCancellationSuspicious(ctx context.Context, id uuid.UUID, fraudScore float64) error {
	args := m.Called(ctx, id, fraudScore)
	return args.Error(0)
}

func (m *MockRepository) RecentCancellations(ctx context.Context, userID uuid.UUID, limit int) ([]*CancellationRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*CancellationRecord), args.Error(1)
}

func (m *MockRepository) AllCancellations(ctx context.Context, userID uuid.UUID) ([]*CancellationRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*CancellationRecord), args.Error(1)
}

func (m *MockRepository) UserBookings(ctx context.Context, userID uuid.UUID) ([]*Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Booking), args.Error(1)
}

type MockModelScorer struct {
	mock.Mock
}

func (m *MockModelScorer) Available() bool {
	return m.Called().Bool(0)
}

func (m *MockModelScorer) Score(ctx context.Context, features FeatureVector) (*FraudVerdict, bool) {
	args := m.Called(ctx, features)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*FraudVerdict), args.Bool(1)
}

func (m *MockModelScorer) Compare(ctx context.Context, request *PatternComparisonRequest) (*PatternComparisonResult, bool) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*PatternComparisonResult), args.Bool(1)
}

func TestDetectFraudFallsBackToRules(t *testing.T) {
	repo := new(MockRepository)
	model := new(MockModelScorer)
	model.On("Score", mock.Anything, mock.Anything).Return(nil, false)

	svc := NewService(repo, model, nil)

	verdict := svc.DetectFraud(context.Background(), FeatureVector{CancellationRatio: 0.6})

	assert.Equal(t, SourceRuleBased, verdict.Source)
	assert.InDelta(t, 0.30, verdict.FraudProbability, 1e-9)
	model.AssertExpectations(t)
}

func TestDetectFraudPrefersModel(t *testing.T) {
	repo := new(MockRepository)
	model := new(MockModelScorer)
	model.On("Score", mock.Anything, mock.Anything).Return(&FraudVerdict{
		IsFraudulent:     true,
		FraudProbability: 0.9,
		Source:           SourceModel,
	}, true)

	svc := NewService(repo, model, nil)

	verdict := svc.DetectFraud(context.Background(), FeatureVector{})

	assert.Equal(t, SourceModel, verdict.Source)
	assert.Equal(t, 0.9, verdict.FraudProbability)
}

func TestScoreUserBuildsFeaturesFromHistory(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	model := new(MockModelScorer)

	repo.On("GetProfile", mock.Anything, userID).Return(&UserFraudProfile{
		UserID:             userID,
		TotalBookings:      10,
		TotalCancellations: 6,
	}, nil)
	repo.On("RecentCancellations", mock.Anything, userID, patternHistoryWindow).Return([]*CancellationRecord{
		{
			TimeSinceBooking:    30,
			TimeBeforeDeparture: 1,
			OriginalBooking:     BookingSnapshot{LeadTime: 1, Adults: 2},
		},
	}, nil)
	model.On("Score", mock.Anything, mock.MatchedBy(func(f FeatureVector) bool {
		return f.UserID == userID.String() && f.CancellationRatio == 0.6 && f.LeadTime == 1
	})).Return(nil, false)

	svc := NewService(repo, model, nil)

	verdict, err := svc.ScoreUser(context.Background(), userID)

	require.NoError(t, err)
	// Short lead time with history plus a high cancellation ratio.
	assert.InDelta(t, 0.55, verdict.FraudProbability, 1e-9)
	repo.AssertExpectations(t)
	model.AssertExpectations(t)
}

func TestScoreUserWithoutAnyHistory(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	model := new(MockModelScorer)

	repo.On("GetProfile", mock.Anything, userID).Return(nil, nil)
	repo.On("RecentCancellations", mock.Anything, userID, patternHistoryWindow).Return(nil, nil)
	model.On("Score", mock.Anything, mock.Anything).Return(nil, false)

	svc := NewService(repo, model, nil)

	verdict, err := svc.ScoreUser(context.Background(), userID)

	require.NoError(t, err)
	assert.False(t, verdict.IsFraudulent)
	assert.Equal(t, 0.0, verdict.FraudProbability)
}

func TestCompareWithHotelPatternsFallsBack(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	model := new(MockModelScorer)

	repo.On("GetProfile", mock.Anything, userID).Return(referenceLikeProfile(), nil)
	repo.On("RecentCancellations", mock.Anything, userID, patternHistoryWindow).Return([]*CancellationRecord{
		cancellationAt(fridayEvening, 21, 5),
	}, nil)
	model.On("Compare", mock.Anything, mock.Anything).Return(nil, false)

	svc := NewService(repo, model, nil)

	result, err := svc.CompareWithHotelPatterns(context.Background(), userID)

	require.NoError(t, err)
	require.NotNil(t, result.DataPoints)
	assert.Equal(t, "fallback", result.DataPoints.Source)
	assert.Equal(t, 100, result.SimilarityScore)
}

func TestCompareWithHotelPatternsUsesModel(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	model := new(MockModelScorer)

	profile := referenceLikeProfile()
	profile.UserID = userID
	repo.On("GetProfile", mock.Anything, userID).Return(profile, nil)
	repo.On("RecentCancellations", mock.Anything, userID, patternHistoryWindow).Return([]*CancellationRecord{
		cancellationAt(fridayEvening, 21, 5),
	}, nil)
	model.On("Compare", mock.Anything, mock.MatchedBy(func(r *PatternComparisonRequest) bool {
		return r.UserID == userID.String() && len(r.Cancellations) == 1
	})).Return(&PatternComparisonResult{SimilarityScore: 77, Source: SourceModel}, true)

	svc := NewService(repo, model, nil)

	result, err := svc.CompareWithHotelPatterns(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 77, result.SimilarityScore)
	assert.Equal(t, SourceModel, result.Source)
}

func TestCompareWithHotelPatternsNoProfile(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	model := new(MockModelScorer)

	repo.On("GetProfile", mock.Anything, userID).Return(nil, nil)

	svc := NewService(repo, model, nil)

	result, err := svc.CompareWithHotelPatterns(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 0, result.SimilarityScore)
	assert.Equal(t, "No user profile found", result.Message)
	model.AssertNotCalled(t, "Compare", mock.Anything, mock.Anything)
}

func TestAnalyzeUserBehaviorRequiresProfile(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	model := new(MockModelScorer)

	repo.On("GetProfile", mock.Anything, userID).Return(nil, nil)

	svc := NewService(repo, model, nil)

	_, err := svc.AnalyzeUserBehavior(context.Background(), userID)

	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestAnalyzeUserBehaviorRecommendations(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	model := new(MockModelScorer)

	profile := &UserFraudProfile{
		UserID:                   userID,
		TotalBookings:            10,
		TotalCancellations:       7,
		CancellationRatio:        0.7,
		CancellationsLast24Hours: 2,
		ShortLeadTimeBookings:    4,
		CurrentFraudScore:        75,
	}
	repo.On("GetProfile", mock.Anything, userID).Return(profile, nil)
	repo.On("RecentCancellations", mock.Anything, userID, patternHistoryWindow).Return(nil, nil)

	svc := NewService(repo, model, nil)

	analysis, err := svc.AnalyzeUserBehavior(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, "high", analysis.CancellationPatterns.RiskLevel)
	require.Len(t, analysis.Recommendations, 3)
	assert.Equal(t, "high", analysis.Recommendations[0].Priority)
	assert.Equal(t, "medium", analysis.Recommendations[2].Priority)
	assert.Equal(t, "No cancellation history found", analysis.HotelComparison.Message)
}

func TestUpdateUserProfileFlagsBurstCanceller(t *testing.T) {
	userID := uuid.New()
	repo := new(MockRepository)
	model := new(MockModelScorer)

	// Five cancellations half an hour apart: the 24 hour burst scores 40 and
	// the sub-hour average gap adds 15, crossing the flag threshold.
	now := time.Now().UTC()
	boatID := uuid.New()
	cancellations := make([]*CancellationRecord, 0, 5)
	for i := 0; i < 5; i++ {
		cancellations = append(cancellations, &CancellationRecord{
			BoatID:           boatID,
			CancellationDate: now.Add(-time.Duration(i) * 30 * time.Minute),
		})
	}
	repo.On("AllCancellations", mock.Anything, userID).Return(cancellations, nil)
	repo.On("UserBookings", mock.Anything, userID).Return([]*Booking{}, nil)
	repo.On("UpsertProfile", mock.Anything, mock.MatchedBy(func(p *UserFraudProfile) bool {
		return p.IsFlagged && p.FlagReason == "High volume of cancellations in 24 hours"
	})).Return(nil)

	svc := NewService(repo, model, nil)

	profile, err := svc.UpdateUserProfile(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 5, profile.CancellationsLast24Hours)
	assert.Equal(t, 1, profile.DistinctBoatsCancelled)
	assert.Equal(t, 55.0, profile.CurrentFraudScore)
	assert.True(t, profile.IsFlagged)
	repo.AssertExpectations(t)
}

func TestRecomputeProfileAggregates(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	boatA, boatB := uuid.New(), uuid.New()

	bookings := []*Booking{
		{BoatID: boatA, Adults: 2, Children: 2, CreatedAt: now.AddDate(0, 0, -40), StartDate: now.AddDate(0, 0, -30)},
		{BoatID: boatB, Adults: 4, Children: 0, CreatedAt: now.AddDate(0, 0, -10), StartDate: now.AddDate(0, 0, -9)},
	}
	cancellations := []*CancellationRecord{
		{BoatID: boatB, CancellationDate: now.AddDate(0, 0, -9)},
		{BoatID: boatB, CancellationDate: now.AddDate(0, 0, -10)},
	}

	profile := recomputeProfile(userID, bookings, cancellations, now)

	assert.Equal(t, 2, profile.TotalBookings)
	assert.Equal(t, 2, profile.TotalCancellations)
	assert.Equal(t, 1.0, profile.CancellationRatio)
	assert.Equal(t, 0, profile.CancellationsLast24Hours)
	assert.Equal(t, 2, profile.CancellationsLast30Days)
	assert.Equal(t, 2, profile.DistinctBoatsBooked)
	assert.Equal(t, 1, profile.DistinctBoatsCancelled)
	assert.Equal(t, 3.0, profile.AverageAdults)
	assert.Equal(t, 1.0, profile.AverageChildren)
	assert.Equal(t, 3.0, profile.AdultChildrenRatio)
	// Passenger totals 4 and 4 have zero variance.
	assert.Equal(t, 0.0, profile.PassengerVariance)
	// Lead times of 10 and 1 days.
	assert.InDelta(t, 5.5, profile.AverageLeadTime, 1e-9)
	assert.Equal(t, 1, profile.ShortLeadTimeBookings)

	require.NotNil(t, profile.AverageTimeBetweenCancellations)
	assert.InDelta(t, 24.0, *profile.AverageTimeBetweenCancellations, 1e-9)
}

func TestHeuristicScoreBands(t *testing.T) {
	rapid := 0.5
	cases := []struct {
		name    string
		profile UserFraudProfile
		want    float64
	}{
		{"clean", UserFraudProfile{}, 0},
		{"single recent cancellation", UserFraudProfile{CancellationsLast24Hours: 1}, 10},
		{"burst of five", UserFraudProfile{CancellationsLast24Hours: 5}, 40},
		{"excessive ratio", UserFraudProfile{TotalBookings: 6, CancellationRatio: 0.9}, 20},
		{"elevated ratio", UserFraudProfile{TotalBookings: 6, CancellationRatio: 0.6}, 10},
		{"rapid fire", UserFraudProfile{AverageTimeBetweenCancellations: &rapid}, 15},
		{"short lead times", UserFraudProfile{ShortLeadTimeBookings: 4}, 15},
		{"erratic passengers", UserFraudProfile{TotalBookings: 4, PassengerVariance: 5}, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, heuristicScore(&tc.profile))
		})
	}
}
