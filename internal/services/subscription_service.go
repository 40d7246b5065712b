package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/policy"
	"go.uber.org/zap"
)

// Prices charged when no active plan of the subscription type exists
const (
	FallbackOverallPrice   int64 = 2000
	FallbackClassWisePrice int64 = 500
)

// subscriptionService implements the subscription gate
type subscriptionService struct {
	users    Collection[models.User]
	plans    Collection[models.Plan]
	payments Collection[models.PaymentRecord]
	logger   *zap.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	users Collection[models.User],
	plans Collection[models.Plan],
	payments Collection[models.PaymentRecord],
	logger *zap.Logger,
) *subscriptionService {
	return &subscriptionService{
		users:    users,
		plans:    plans,
		payments: payments,
		logger:   logger,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// IsActive reports whether student currently has paid access
func (s *subscriptionService) IsActive(student *models.User) bool {
	return policy.SubscriptionActive(student, s.now())
}

// RequiredAmount returns the price student has to pay for their subscription type
func (s *subscriptionService) RequiredAmount(ctx context.Context, student *models.User) (int64, error) {
	if student == nil || student.Student == nil {
		return 0, fmt.Errorf("%w: only students have a subscription", models.ErrValidation)
	}
	amount, _, err := s.Quote(ctx, student.Student.SubscriptionType)
	return amount, err
}

// Quote returns the price of subType and the plan it comes from.
// The first active plan of the type in insertion order wins; without one the fallback price applies and plan is nil.
func (s *subscriptionService) Quote(ctx context.Context, subType models.SubscriptionType) (int64, *models.Plan, error) {
	if !subType.Valid() {
		return 0, nil, fmt.Errorf("%w: invalid subscription type %q", models.ErrValidation, subType)
	}

	plans, err := s.plans.GetAll(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list plans: %w", err)
	}
	for i := range plans {
		if plans[i].Active && plans[i].Type == subType {
			return plans[i].Price, &plans[i], nil
		}
	}

	if subType == models.SubscriptionOverall {
		return FallbackOverallPrice, nil, nil
	}
	return FallbackClassWisePrice, nil, nil
}

// MarkPaid activates the subscription paid for by the successful payment paymentID.
//
// It is the only path that sets isPaid. Repeated and concurrent calls for the same payment
// apply the activation once: later calls return the current identity without writing or auditing.
func (s *subscriptionService) MarkPaid(ctx context.Context, paymentID string) (*models.User, error) {
	unlock := s.locks.Lock(paymentID)
	defer unlock()

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentSuccess {
		return nil, fmt.Errorf("%w: payment %s is %s", models.ErrInvalidTransition, paymentID, payment.Status)
	}

	now := s.now().UTC()
	if _, err := s.payments.Update(ctx, models.SystemActor, paymentID, models.PaymentAppliedPatch{At: now}); err != nil {
		if errors.Is(err, models.ErrAlreadyApplied) {
			s.logger.Debug("payment already applied", zap.String("payment_id", paymentID))
			return s.users.GetByID(ctx, payment.UserID)
		}
		return nil, fmt.Errorf("failed to claim payment: %w", err)
	}

	patch := &activationPatch{payment: payment}
	if payment.PlanID != "" {
		plan, err := s.plans.GetByID(ctx, payment.PlanID)
		switch {
		case err == nil:
			expiry := now.AddDate(0, 0, plan.DurationDays)
			patch.expiry = &expiry
		case errors.Is(err, models.ErrNotFound):
			s.logger.Warn("paid plan no longer exists, activating without expiry",
				zap.String("payment_id", paymentID), zap.String("plan_id", payment.PlanID))
		default:
			s.release(ctx, paymentID)
			return nil, fmt.Errorf("failed to load plan: %w", err)
		}
	}

	user, err := s.users.Update(ctx, models.SystemActor, payment.UserID, patch)
	if err != nil {
		s.release(ctx, paymentID)
		return nil, fmt.Errorf("failed to activate subscription: %w", err)
	}

	s.logger.Info("subscription activated",
		zap.String("user_id", user.ID),
		zap.String("payment_id", paymentID),
		zap.String("type", string(payment.SubscriptionType)),
	)
	return user, nil
}

// release undoes the claim on paymentID so a later call can retry the activation
func (s *subscriptionService) release(ctx context.Context, paymentID string) {
	if _, err := s.payments.Update(ctx, models.SystemActor, paymentID, models.PaymentReleasePatch{}); err != nil {
		s.logger.Error("failed to release payment claim", zap.String("payment_id", paymentID), zap.Error(err))
	}
}

// activationPatch copies a successful payment onto the student profile
type activationPatch struct {
	payment *models.PaymentRecord
	expiry  *time.Time
}

func (p *activationPatch) Apply(u *models.User) error {
	if u.Student == nil {
		return fmt.Errorf("%w: user %s is not a student", models.ErrValidation, u.ID)
	}

	u.Student.IsPaid = true
	u.Student.PaymentID = p.payment.ID
	u.Student.SubscriptionExpiry = p.expiry
	if p.payment.SubscriptionType.Valid() {
		u.Student.SubscriptionType = p.payment.SubscriptionType
	}
	if p.payment.TargetClass.Valid() {
		u.Student.ClassGrade = p.payment.TargetClass
	}
	if u.Student.SubscriptionType == models.SubscriptionClassWise {
		u.Student.Subject = strings.TrimSpace(p.payment.TargetSubject)
	} else {
		u.Student.Subject = ""
	}
	return nil
}

func (p *activationPatch) AuditAction() models.AuditAction {
	return models.ActionSubscriptionActivate
}

func (p *activationPatch) AuditDetails() string {
	details := fmt.Sprintf("payment=%s, type=%s, amount=%d", p.payment.ID, p.payment.SubscriptionType, p.payment.Amount)
	if p.expiry != nil {
		details += ", expires=" + p.expiry.Format(time.RFC3339)
	}
	return details
}
