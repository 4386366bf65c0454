package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for fraud data.
type Repository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserFraudProfile, error)
	UpsertProfile(ctx context.Context, profile *UserFraudProfile) error
	ListFlaggedProfiles(ctx context.Context, limit, offset int) ([]*UserFraudProfile, error)
	GetStatistics(ctx context.Context) (*FraudStatistics, error)

	CreateCancellation(ctx context.Context, record *CancellationRecord) error
	MarkCancellationSuspicious(ctx context.Context, id uuid.UUID, fraudScore float64) error
	RecentCancellations(ctx context.Context, userID uuid.UUID, limit int) ([]*CancellationRecord, error)
	AllCancellations(ctx context.Context, userID uuid.UUID) ([]*CancellationRecord, error)

	UserBookings(ctx context.Context, userID uuid.UUID) ([]*Booking, error)
}

// ModelScorer is the remote model surface the service depends on.
type ModelScorer interface {
	Available() bool
	Score(ctx context.Context, features FeatureVector) (*FraudVerdict, bool)
	Compare(ctx context.Context, request *PatternComparisonRequest) (*PatternComparisonResult, bool)
}

// Cache is the subset of the Redis client used for pattern result caching.
type Cache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Service defines the fraud detection business operations.
type Service interface {
	DetectFraud(ctx context.Context, features FeatureVector) *FraudVerdict
	ScoreUser(ctx context.Context, userID uuid.UUID) (*FraudVerdict, error)
	CompareWithHotelPatterns(ctx context.Context, userID uuid.UUID) (*PatternComparisonResult, error)
	AnalyzeUserBehavior(ctx context.Context, userID uuid.UUID) (*BehaviorAnalysis, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*UserFraudProfile, error)
	GetCancellations(ctx context.Context, userID uuid.UUID, limit int) ([]*CancellationRecord, error)
	GetFlaggedProfiles(ctx context.Context, limit, offset int) ([]*UserFraudProfile, error)
	GetStatistics(ctx context.Context) (*FraudStatistics, error)

	RecordCancellation(ctx context.Context, record *CancellationRecord) error
	MarkCancellationSuspicious(ctx context.Context, id uuid.UUID, fraudScore float64) error
	UpdateUserProfile(ctx context.Context, userID uuid.UUID) (*UserFraudProfile, error)
}
