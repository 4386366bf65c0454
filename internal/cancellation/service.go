package cancellation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/internal/fraud"
	"github.com/harborcrew/boatmarket/pkg/eventbus"
	"github.com/harborcrew/boatmarket/pkg/logger"
)

// Cancellations inside this window after booking creation look like probing.
const quickCancelWindow = 30 * time.Minute

// Free-text reasons containing these fragments suggest a non-serious booking.
var suspiciousReasonIndicators = []string{
	"test",
	"just checking",
	"mistake",
	"wrong date",
	"found better price",
	"change of plans",
}

// Service runs the booking cancellation flow: record the event, refresh the
// user's fraud profile, score the cancellation, and warn the boat owner when
// it looks suspicious.
type Service struct {
	bookings BookingRepository
	fraudSvc FraudService
	notifier Notifier
}

func NewService(bookings BookingRepository, fraudSvc FraudService, notifier Notifier) *Service {
	return &Service{bookings: bookings, fraudSvc: fraudSvc, notifier: notifier}
}

// Cancel cancels a booking. Fraud assessment runs inline but its failures
// never fail the cancellation itself; only booking and record persistence do.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID, req CancelBookingRequest, ipAddress, deviceInfo string) (*CancellationResult, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == "cancelled" {
		return nil, ErrAlreadyCancelled
	}

	now := time.Now().UTC()
	record := buildRecord(booking, req, ipAddress, deviceInfo, now)

	if err := s.fraudSvc.RecordCancellation(ctx, record); err != nil {
		return nil, fmt.Errorf("record cancellation: %w", err)
	}
	if err := s.bookings.CancelBooking(ctx, bookingID); err != nil {
		return nil, err
	}

	result := &CancellationResult{
		BookingID:      bookingID,
		CancellationID: record.ID,
		Status:         "cancelled",
	}

	profile, err := s.fraudSvc.UpdateUserProfile(ctx, booking.UserID)
	if err != nil {
		logger.WithContext(ctx).Error("unable to refresh fraud profile after cancellation",
			zap.String("user_id", booking.UserID.String()), zap.Error(err))
		return result, nil
	}

	verdict, err := s.fraudSvc.ScoreUser(ctx, booking.UserID)
	if err != nil {
		logger.WithContext(ctx).Error("unable to score cancellation",
			zap.String("user_id", booking.UserID.String()), zap.Error(err))
		return result, nil
	}
	result.Verdict = verdict

	reasons := suspicionReasons(record, req, profile)
	if verdict.IsFraudulent {
		reasons = append(reasons, verdict.Factors...)
	}
	if len(reasons) == 0 {
		return result, nil
	}

	result.IsSuspicious = true
	// The record carries the profile's 0-100 score, not the 0-1 probability.
	if err := s.fraudSvc.MarkCancellationSuspicious(ctx, record.ID, profile.CurrentFraudScore); err != nil {
		logger.WithContext(ctx).Error("unable to annotate cancellation record",
			zap.String("cancellation_id", record.ID.String()), zap.Error(err))
	}

	similarity := 0
	if comparison, err := s.fraudSvc.CompareWithHotelPatterns(ctx, booking.UserID); err == nil {
		similarity = comparison.SimilarityScore
	}

	s.notifyOwner(booking, record, verdict, reasons, similarity)

	return result, nil
}

// buildRecord derives the timing metrics and freezes the booking snapshot.
func buildRecord(booking *fraud.Booking, req CancelBookingRequest, ipAddress, deviceInfo string, now time.Time) *fraud.CancellationRecord {
	return &fraud.CancellationRecord{
		ID:                 uuid.New(),
		UserID:             booking.UserID,
		BookingID:          booking.ID,
		BoatID:             booking.BoatID,
		CancellationDate:   now,
		CancellationReason: fraud.CancellationReason(req.Reason),
		UserProvidedReason: req.Comment,
		OriginalBooking: fraud.BookingSnapshot{
			StartDate:   booking.StartDate,
			EndDate:     booking.EndDate,
			Adults:      booking.Adults,
			Children:    booking.Children,
			TotalAmount: booking.TotalAmount,
			LeadTime:    booking.StartDate.Sub(booking.CreatedAt).Hours() / 24,
		},
		TimeSinceBooking:    now.Sub(booking.CreatedAt).Minutes(),
		TimeBeforeDeparture: booking.StartDate.Sub(now).Hours() / 24,
		IPAddress:           ipAddress,
		DeviceInfo:          deviceInfo,
		CreatedAt:           now,
	}
}

// suspicionReasons applies the fast local heuristics that do not need the
// full rule engine.
func suspicionReasons(record *fraud.CancellationRecord, req CancelBookingRequest, profile *fraud.UserFraudProfile) []string {
	var reasons []string

	if record.TimeSinceBooking < quickCancelWindow.Minutes() {
		reasons = append(reasons, "Cancelled within 30 minutes of booking")
	}
	if profile != nil && profile.CancellationsLast24Hours > 3 {
		reasons = append(reasons, "More than 3 cancellations in the last 24 hours")
	}
	if indicator := matchReasonIndicator(req.Comment); indicator != "" {
		reasons = append(reasons, fmt.Sprintf("Cancellation reason mentions %q", indicator))
	}

	return reasons
}

func matchReasonIndicator(comment string) string {
	lowered := strings.ToLower(comment)
	for _, indicator := range suspiciousReasonIndicators {
		if strings.Contains(lowered, indicator) {
			return indicator
		}
	}
	return ""
}

// notifyOwner warns the boat owner in the background. Notification failures
// are logged and swallowed.
func (s *Service) notifyOwner(booking *fraud.Booking, record *fraud.CancellationRecord, verdict *fraud.FraudVerdict, reasons []string, similarity int) {
	if s.notifier == nil {
		return
	}

	data := eventbus.CancellationFlaggedData{
		UserID:          booking.UserID,
		BookingID:       booking.ID,
		BoatID:          booking.BoatID,
		CancellationID:  record.ID,
		FraudScore:      verdict.FraudProbability,
		SimilarityScore: similarity,
		Reason:          strings.Join(reasons, "; "),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.notifier.NotifySuspiciousCancellation(ctx, data); err != nil {
			logger.Error("unable to notify boat owner about suspicious cancellation",
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err))
		}
	}()
}
