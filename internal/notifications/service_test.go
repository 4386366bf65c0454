package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harborcrew/boatmarket/pkg/eventbus"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateNotification(ctx context.Context, notification *Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockRepository) GetOwnerNotifications(ctx context.Context, ownerID uuid.UUID, notifType string, limit, offset int) ([]*Notification, int64, error) {
	args := m.Called(ctx, ownerID, notifType, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) MarkNotificationAsRead(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) GetBoatOwner(ctx context.Context, boatID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, boatID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject, eventType string, data interface{}) error {
	args := m.Called(ctx, subject, eventType, data)
	return args.Error(0)
}

func flaggedData(boatID uuid.UUID) eventbus.CancellationFlaggedData {
	return eventbus.CancellationFlaggedData{
		UserID:         uuid.New(),
		BookingID:      uuid.New(),
		BoatID:         boatID,
		CancellationID: uuid.New(),
		FraudScore:     0.8,
		Reason:         "Multiple cancellations in last 24 hours",
	}
}

func TestNotifySuspiciousCancellationDirect(t *testing.T) {
	boatID := uuid.New()
	ownerID := uuid.New()
	repo := new(MockRepository)

	repo.On("GetBoatOwner", mock.Anything, boatID).Return(ownerID, nil)
	repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *Notification) bool {
		return n.UserID == ownerID && n.Type == TypeFraudWarning && !n.IsRead
	})).Return(nil)

	svc := NewService(repo, nil)

	err := svc.NotifySuspiciousCancellation(context.Background(), flaggedData(boatID))

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestNotifySuspiciousCancellationPublishesWhenBusConfigured(t *testing.T) {
	boatID := uuid.New()
	repo := new(MockRepository)
	bus := new(MockPublisher)

	data := flaggedData(boatID)
	bus.On("Publish", mock.Anything, eventbus.SubjectFraud, eventbus.EventCancellationFlagged, data).Return(nil)

	svc := NewService(repo, bus)

	err := svc.NotifySuspiciousCancellation(context.Background(), data)

	require.NoError(t, err)
	bus.AssertExpectations(t)
	repo.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
}

func TestCreateFraudWarningUnknownBoat(t *testing.T) {
	boatID := uuid.New()
	repo := new(MockRepository)

	repo.On("GetBoatOwner", mock.Anything, boatID).Return(uuid.Nil, ErrBoatNotFound)

	svc := NewService(repo, nil)

	err := svc.CreateFraudWarning(context.Background(), flaggedData(boatID))

	assert.ErrorIs(t, err, ErrBoatNotFound)
	repo.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
}

func TestGetOwnerFraudWarningsClampsLimit(t *testing.T) {
	ownerID := uuid.New()
	repo := new(MockRepository)

	repo.On("GetOwnerNotifications", mock.Anything, ownerID, TypeFraudWarning, 20, 0).
		Return([]*Notification{}, int64(0), nil)

	svc := NewService(repo, nil)

	_, _, err := svc.GetOwnerFraudWarnings(context.Background(), ownerID, -5, -1)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
