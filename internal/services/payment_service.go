package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/growup/backend/internal/ids"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/validation"
	"go.uber.org/zap"
)

// SubscriptionGate is the interface that wraps the pricing and activation of subscriptions
type SubscriptionGate interface {
	// Method Quote returns the price of a subscription type and the plan it comes from.
	//
	// The plan is nil when the fallback price applies.
	Quote(ctx context.Context, subType models.SubscriptionType) (int64, *models.Plan, error)
	// Method MarkPaid activates the subscription paid for by a successful payment, at most once per payment.
	MarkPaid(ctx context.Context, paymentID string) (*models.User, error)
}

// paymentService implements the two-phase payment flow
type paymentService struct {
	payments Collection[models.PaymentRecord]
	users    Collection[models.User]
	gate     SubscriptionGate
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments Collection[models.PaymentRecord],
	users Collection[models.User],
	gate SubscriptionGate,
	validate *validator.Validate,
	logger *zap.Logger,
) *paymentService {
	return &paymentService{
		payments: payments,
		users:    users,
		gate:     gate,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

// subscriptionTarget fills the empty fields of a purchase from the student's profile
func subscriptionTarget(student *models.User, subType models.SubscriptionType, class models.ClassGrade, subject string) (models.SubscriptionType, models.ClassGrade, string) {
	if subType == "" {
		subType = student.Student.SubscriptionType
	}
	if class == "" {
		class = student.Student.ClassGrade
	}
	subject = strings.TrimSpace(subject)
	if subType != models.SubscriptionClassWise {
		subject = ""
	} else if subject == "" {
		subject = student.Student.Subject
	}
	return subType, class, subject
}

// Initiate opens a PENDING payment for student at the quoted price
func (s *paymentService) Initiate(ctx context.Context, student *models.User, req *models.InitiatePaymentRequest) (*models.PaymentRecord, error) {
	if student == nil || student.IsBlocked || !student.IsStudent() || student.Student == nil {
		return nil, fmt.Errorf("%w: only students can purchase a subscription", models.ErrUnauthorized)
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	subType, class, subject := subscriptionTarget(student, req.SubscriptionType, req.TargetClass, req.TargetSubject)
	amount, plan, err := s.gate.Quote(ctx, subType)
	if err != nil {
		return nil, err
	}

	record := &models.PaymentRecord{
		ID:               ids.NewPaymentID(),
		UserID:           student.ID,
		Amount:           amount,
		Date:             s.now().UTC(),
		Status:           models.PaymentPending,
		SubscriptionType: subType,
		TargetClass:      class,
		TargetSubject:    subject,
	}
	if plan != nil {
		record.PlanID = plan.ID
	}

	created, err := s.payments.Create(ctx, student.ID, record)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment initiated", zap.String("payment_id", created.ID), zap.String("user_id", student.ID), zap.Int64("amount", amount))
	return created, nil
}

// Confirm applies the gateway outcome to a PENDING payment.
// A SUCCESS outcome activates the subscription; confirming an already successful payment again is a no-op.
func (s *paymentService) Confirm(ctx context.Context, req *models.ConfirmPaymentRequest) (*models.PaymentRecord, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	record, err := s.payments.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	if !(record.Status == models.PaymentSuccess && req.Status == models.PaymentSuccess) {
		updated, err := s.payments.Update(ctx, models.SystemActor, req.PaymentID, &models.PaymentStatusPatch{
			Status:     req.Status,
			GatewayRef: req.GatewayRef,
		})
		switch {
		case err == nil:
			record = updated
			s.logger.Info("payment confirmed", zap.String("payment_id", record.ID), zap.String("status", string(record.Status)))
		case errors.Is(err, models.ErrInvalidTransition) && req.Status == models.PaymentSuccess:
			// A concurrent delivery of the same outcome may have won the transition.
			current, getErr := s.payments.GetByID(ctx, req.PaymentID)
			if getErr != nil {
				return nil, getErr
			}
			if current.Status != models.PaymentSuccess {
				return nil, err
			}
			record = current
		default:
			return nil, err
		}
	}

	if record.Status == models.PaymentSuccess {
		if _, err := s.gate.MarkPaid(ctx, record.ID); err != nil {
			return nil, err
		}
	}

	return s.payments.GetByID(ctx, record.ID)
}

// RecordManual records an offline payment taken by an admin and activates it
func (s *paymentService) RecordManual(ctx context.Context, actor *models.User, req *models.ManualPaymentRequest) (*models.PaymentRecord, error) {
	if err := requireManage(actor, models.CollectionPayments); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	student, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !student.IsStudent() || student.Student == nil {
		return nil, fmt.Errorf("%w: user %s is not a student", models.ErrValidation, student.ID)
	}

	subType, class, subject := subscriptionTarget(student, req.SubscriptionType, req.TargetClass, req.TargetSubject)
	amount, plan, err := s.gate.Quote(ctx, subType)
	if err != nil {
		return nil, err
	}
	if req.Amount != nil {
		amount = *req.Amount
	}

	record := &models.PaymentRecord{
		ID:               ids.NewPaymentID(),
		UserID:           student.ID,
		Amount:           amount,
		Date:             s.now().UTC(),
		Status:           models.PaymentSuccess,
		SubscriptionType: subType,
		TargetClass:      class,
		TargetSubject:    subject,
		GatewayRef:       "manual",
	}
	if req.Reference != "" {
		record.GatewayRef = "manual:" + req.Reference
	}
	if plan != nil {
		record.PlanID = plan.ID
	}

	created, err := s.payments.Create(ctx, actor.ID, record)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.MarkPaid(ctx, created.ID); err != nil {
		return nil, err
	}

	return s.payments.GetByID(ctx, created.ID)
}

// ListMine returns the payments of user in insertion order
func (s *paymentService) ListMine(ctx context.Context, user *models.User) ([]models.PaymentRecord, error) {
	if user == nil {
		return nil, models.ErrUnauthorized
	}
	all, err := s.payments.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	mine := []models.PaymentRecord{}
	for _, p := range all {
		if p.UserID == user.ID {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// List returns every payment, most recent first. Only admins may list them.
func (s *paymentService) List(ctx context.Context, actor *models.User) ([]models.PaymentRecord, error) {
	if err := requireRead(actor, models.CollectionPayments); err != nil {
		return nil, err
	}
	all, err := s.payments.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.PaymentRecord, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result, nil
}

// ExpireStale fails PENDING payments opened more than ttl ago and returns how many were failed
func (s *paymentService) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	all, err := s.payments.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-ttl)
	expired := 0
	for _, p := range all {
		if p.Status != models.PaymentPending || !p.Date.Before(cutoff) {
			continue
		}
		_, err := s.payments.Update(ctx, models.SystemActor, p.ID, &models.PaymentStatusPatch{
			Status:     models.PaymentFailed,
			GatewayRef: "expired",
		})
		if errors.Is(err, models.ErrInvalidTransition) || errors.Is(err, models.ErrNotFound) {
			// Confirmed or removed since the listing.
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("stale payments expired", zap.Int("count", expired))
	}
	return expired, nil
}
