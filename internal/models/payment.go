package models

import (
	"fmt"
	"time"
)

// PaymentStatus is the gateway outcome of a payment
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentPending PaymentStatus = "PENDING"
	PaymentFailed  PaymentStatus = "FAILED"
)

// PaymentRecord tracks one subscription purchase
type PaymentRecord struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	PlanID           string           `json:"planId,omitempty"`
	Amount           int64            `json:"amount"`
	Date             time.Time        `json:"date"`
	Status           PaymentStatus    `json:"status"`
	SubscriptionType SubscriptionType `json:"subscriptionType"`
	TargetClass      ClassGrade       `json:"targetClass,omitempty"`
	TargetSubject    string           `json:"targetSubject,omitempty"`
	GatewayRef       string           `json:"gatewayRef,omitempty"`
	AppliedAt        *time.Time       `json:"appliedAt,omitempty"`
}

// InitiatePaymentRequest starts a payment for the calling student.
// Empty fields default to the student's profile.
type InitiatePaymentRequest struct {
	SubscriptionType SubscriptionType `json:"subscriptionType" validate:"omitempty,subscriptiontype"`
	TargetClass      ClassGrade       `json:"targetClass" validate:"omitempty,classgrade"`
	TargetSubject    string           `json:"targetSubject" validate:"max=100"`
}

// ConfirmPaymentRequest is the gateway callback payload
type ConfirmPaymentRequest struct {
	PaymentID  string        `json:"paymentId" validate:"required"`
	Status     PaymentStatus `json:"status" validate:"required,oneof=SUCCESS FAILED"`
	GatewayRef string        `json:"gatewayRef" validate:"max=200"`
}

// ManualPaymentRequest records an offline payment on behalf of a student
type ManualPaymentRequest struct {
	UserID           string           `json:"userId" validate:"required"`
	Amount           *int64           `json:"amount,omitempty" validate:"omitempty,gte=0"`
	SubscriptionType SubscriptionType `json:"subscriptionType" validate:"omitempty,subscriptiontype"`
	TargetClass      ClassGrade       `json:"targetClass" validate:"omitempty,classgrade"`
	TargetSubject    string           `json:"targetSubject" validate:"max=100"`
	Reference        string           `json:"reference" validate:"max=200"`
}

// PaymentStatusPatch moves a pending payment to its final status
type PaymentStatusPatch struct {
	Status     PaymentStatus
	GatewayRef string
}

// Apply enforces the PENDING -> SUCCESS|FAILED transition
func (p *PaymentStatusPatch) Apply(r *PaymentRecord) error {
	if p.Status != PaymentSuccess && p.Status != PaymentFailed {
		return fmt.Errorf("%w: cannot move to %s", ErrInvalidTransition, p.Status)
	}
	if r.Status != PaymentPending {
		return fmt.Errorf("%w: payment is %s", ErrInvalidTransition, r.Status)
	}
	r.Status = p.Status
	if p.GatewayRef != "" {
		r.GatewayRef = p.GatewayRef
	}
	return nil
}

// AuditAction tags status changes
func (p *PaymentStatusPatch) AuditAction() AuditAction {
	return ActionPaymentStatusChange
}

// AuditDetails records the new status
func (p *PaymentStatusPatch) AuditDetails() string {
	return "status=" + string(p.Status)
}

// PaymentAppliedPatch claims a successful payment for activation exactly once
type PaymentAppliedPatch struct {
	At time.Time
}

// Apply fails with ErrAlreadyApplied on the second claim
func (p PaymentAppliedPatch) Apply(r *PaymentRecord) error {
	if r.Status != PaymentSuccess {
		return fmt.Errorf("%w: payment is %s", ErrInvalidTransition, r.Status)
	}
	if r.AppliedAt != nil {
		return ErrAlreadyApplied
	}
	at := p.At
	r.AppliedAt = &at
	return nil
}

// AuditAction is empty: the activation itself is audited on the user
func (p PaymentAppliedPatch) AuditAction() AuditAction {
	return ""
}

// PaymentReleasePatch undoes a claim when activation could not complete
type PaymentReleasePatch struct{}

// Apply clears AppliedAt
func (PaymentReleasePatch) Apply(r *PaymentRecord) error {
	r.AppliedAt = nil
	return nil
}

// AuditAction is empty: releasing a claim is bookkeeping
func (PaymentReleasePatch) AuditAction() AuditAction {
	return ""
}
