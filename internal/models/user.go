package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Role determines what an identity may see and change
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

// SubscriptionType is the scope of a student's paid access
type SubscriptionType string

const (
	SubscriptionClassWise SubscriptionType = "CLASS_WISE"
	SubscriptionOverall   SubscriptionType = "OVERALL"
)

// Valid reports whether t is one of the known subscription types
func (t SubscriptionType) Valid() bool {
	return t == SubscriptionClassWise || t == SubscriptionOverall
}

// ClassGrade is the school class a student or content item belongs to
type ClassGrade string

// ClassGrades lists the supported classes
var ClassGrades = []ClassGrade{"9", "10", "11", "12"}

// Valid reports whether g is one of ClassGrades
func (g ClassGrade) Valid() bool {
	return slices.Contains(ClassGrades, g)
}

// StudentProfile holds the attributes that exist only for students
type StudentProfile struct {
	ClassGrade         ClassGrade       `json:"classGrade"`
	SubscriptionType   SubscriptionType `json:"subscriptionType"`
	Subject            string           `json:"subject,omitempty"` // purchased subject for CLASS_WISE
	IsPaid             bool             `json:"isPaid"`
	SubscriptionExpiry *time.Time       `json:"subscriptionExpiry,omitempty"`
	PaymentID          string           `json:"paymentId,omitempty"`
}

// User represents an identity in the system.
// Student is non-nil if and only if Role is RoleStudent.
type User struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"passwordHash"`
	Name         string          `json:"name"`
	Mobile       string          `json:"mobile"`
	Role         Role            `json:"role"`
	IsBlocked    bool            `json:"isBlocked"`
	ShowMobile   bool            `json:"showMobile,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	Student      *StudentProfile `json:"student,omitempty"`
}

// NormalizeEmail lower-cases and trims an email so it can be used as a unique key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeProfile enforces the role/profile invariant
func (u *User) NormalizeProfile() {
	if u.Role == RoleStudent {
		if u.Student == nil {
			u.Student = &StudentProfile{}
		}
		u.ShowMobile = false
		return
	}
	u.Student = nil
}

// IsStudent reports whether the user has the student role
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// UserPatch is a partial update of a user. Nil fields are left untouched.
type UserPatch struct {
	Email              *string
	PasswordHash       *string
	Name               *string
	Mobile             *string
	Role               *Role
	IsBlocked          *bool
	ShowMobile         *bool
	ClassGrade         *ClassGrade
	SubscriptionType   *SubscriptionType
	Subject            *string
	IsPaid             *bool
	SubscriptionExpiry *time.Time
	PaymentID          *string
	// Action overrides the derived audit action when set
	Action AuditAction
}

// Apply merges the patch into u
func (p *UserPatch) Apply(u *User) error {
	if p.Email != nil {
		email := NormalizeEmail(*p.Email)
		if email == "" {
			return fmt.Errorf("%w: email cannot be empty", ErrValidation)
		}
		u.Email = email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Mobile != nil {
		u.Mobile = *p.Mobile
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return fmt.Errorf("%w: invalid role %q", ErrValidation, *p.Role)
		}
		u.Role = *p.Role
	}
	if p.IsBlocked != nil {
		u.IsBlocked = *p.IsBlocked
	}
	if p.ShowMobile != nil {
		u.ShowMobile = *p.ShowMobile
	}
	u.NormalizeProfile()

	if !p.touchesStudent() {
		return nil
	}
	if u.Student == nil {
		return fmt.Errorf("%w: student fields require the %s role", ErrValidation, RoleStudent)
	}
	if p.ClassGrade != nil {
		if !p.ClassGrade.Valid() {
			return fmt.Errorf("%w: invalid class %q", ErrValidation, *p.ClassGrade)
		}
		u.Student.ClassGrade = *p.ClassGrade
	}
	if p.SubscriptionType != nil {
		if !p.SubscriptionType.Valid() {
			return fmt.Errorf("%w: invalid subscription type %q", ErrValidation, *p.SubscriptionType)
		}
		u.Student.SubscriptionType = *p.SubscriptionType
	}
	if p.Subject != nil {
		u.Student.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.IsPaid != nil {
		u.Student.IsPaid = *p.IsPaid
	}
	if p.SubscriptionExpiry != nil {
		expiry := *p.SubscriptionExpiry
		u.Student.SubscriptionExpiry = &expiry
	}
	if p.PaymentID != nil {
		u.Student.PaymentID = *p.PaymentID
	}
	return nil
}

func (p *UserPatch) touchesStudent() bool {
	return p.ClassGrade != nil || p.SubscriptionType != nil || p.Subject != nil ||
		p.IsPaid != nil || p.SubscriptionExpiry != nil || p.PaymentID != nil
}

// AuditAction derives the audit tag from the fields the patch changes
func (p *UserPatch) AuditAction() AuditAction {
	switch {
	case p.Action != "":
		return p.Action
	case p.Role != nil:
		return ActionUserRoleChange
	case p.IsBlocked != nil && *p.IsBlocked:
		return ActionUserBlock
	case p.IsBlocked != nil:
		return ActionUserUnblock
	default:
		return ActionUserUpdate
	}
}

// AuditDetails lists the changed fields. Secrets are never included.
func (p *UserPatch) AuditDetails() string {
	var fields []string
	if p.Email != nil {
		fields = append(fields, "email="+*p.Email)
	}
	if p.PasswordHash != nil {
		fields = append(fields, "password")
	}
	if p.Name != nil {
		fields = append(fields, "name")
	}
	if p.Mobile != nil {
		fields = append(fields, "mobile")
	}
	if p.Role != nil {
		fields = append(fields, "role="+string(*p.Role))
	}
	if p.IsBlocked != nil {
		fields = append(fields, fmt.Sprintf("isBlocked=%t", *p.IsBlocked))
	}
	if p.ShowMobile != nil {
		fields = append(fields, "showMobile")
	}
	if p.ClassGrade != nil {
		fields = append(fields, "classGrade="+string(*p.ClassGrade))
	}
	if p.SubscriptionType != nil {
		fields = append(fields, "subscriptionType="+string(*p.SubscriptionType))
	}
	if p.Subject != nil {
		fields = append(fields, "subject")
	}
	if p.IsPaid != nil {
		fields = append(fields, fmt.Sprintf("isPaid=%t", *p.IsPaid))
	}
	if p.SubscriptionExpiry != nil {
		fields = append(fields, "subscriptionExpiry")
	}
	if p.PaymentID != nil {
		fields = append(fields, "paymentId="+*p.PaymentID)
	}
	return strings.Join(fields, ", ")
}

// RegisterRequest represents a student self-registration
type RegisterRequest struct {
	Name             string           `json:"name" validate:"required,max=100"`
	Email            string           `json:"email" validate:"required,email"`
	Mobile           string           `json:"mobile" validate:"required,max=20"`
	Password         string           `json:"password" validate:"required,min=6,max=72"`
	ClassGrade       ClassGrade       `json:"classGrade" validate:"required,classgrade"`
	SubscriptionType SubscriptionType `json:"subscriptionType" validate:"required,subscriptiontype"`
	Subject          string           `json:"subject" validate:"max=100"`
	// Role is accepted for compatibility and always ignored
	Role Role `json:"role,omitempty"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest represents a user created by an admin
type CreateUserRequest struct {
	Name             string           `json:"name" validate:"required,max=100"`
	Email            string           `json:"email" validate:"required,email"`
	Mobile           string           `json:"mobile" validate:"required,max=20"`
	Password         string           `json:"password" validate:"required,min=6,max=72"`
	Role             Role             `json:"role" validate:"required,role"`
	ShowMobile       bool             `json:"showMobile"`
	ClassGrade       ClassGrade       `json:"classGrade" validate:"omitempty,classgrade"`
	SubscriptionType SubscriptionType `json:"subscriptionType" validate:"omitempty,subscriptiontype"`
	Subject          string           `json:"subject" validate:"max=100"`
}

// UpdateUserRequest represents an admin edit of a user
type UpdateUserRequest struct {
	Name             *string           `json:"name,omitempty"`
	Mobile           *string           `json:"mobile,omitempty"`
	Email            *string           `json:"email,omitempty"`
	Role             *Role             `json:"role,omitempty"`
	ShowMobile       *bool             `json:"showMobile,omitempty"`
	ClassGrade       *ClassGrade       `json:"classGrade,omitempty"`
	SubscriptionType *SubscriptionType `json:"subscriptionType,omitempty"`
	Subject          *string           `json:"subject,omitempty"`
	IsPaid           *bool             `json:"isPaid,omitempty"`
}

// UserFilter narrows an admin user listing
type UserFilter struct {
	Role   *Role
	Search string
}

// UserResponse is the public representation of a user
type UserResponse struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	Mobile     string          `json:"mobile,omitempty"`
	Role       Role            `json:"role"`
	IsBlocked  bool            `json:"isBlocked"`
	ShowMobile bool            `json:"showMobile,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	Student    *StudentProfile `json:"student,omitempty"`
}

// ToResponse strips the credential from u
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Mobile:     u.Mobile,
		Role:       u.Role,
		IsBlocked:  u.IsBlocked,
		ShowMobile: u.ShowMobile,
		CreatedAt:  u.CreatedAt,
		Student:    u.Student,
	}
}
