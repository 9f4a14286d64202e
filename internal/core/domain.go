package core

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

const (
	CompensationPercentage CompensationType = "percentage"
	CompensationFixed      CompensationType = "fixed"

	SessionOnline  SessionType = "online"
	SessionOffline SessionType = "offline"

	StatusScheduled SessionStatus = "scheduled"
	StatusPending   SessionStatus = "pending"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"

	MethodCash         PaymentMethod = "cash"
	MethodUPI          PaymentMethod = "upi"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

type (
	CompensationType string
	SessionType      string
	SessionStatus    string
	PaymentMethod    string

	// Money is an amount in integer cents.
	Money struct {
		Cents int64
	}

	Client struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		Balance       Money  `json:"balance"`
		CreatedAt     Date   `json:"createdAt"`
		TotalSessions int    `json:"totalSessions"`
	}

	Staff struct {
		ID               string           `json:"id"`
		Name             string           `json:"name"`
		Email            string           `json:"email"`
		Phone            string           `json:"phone"`
		CompensationRate float64          `json:"compensationRate"` // percent of fee, or currency per session
		CompensationType CompensationType `json:"compensationType"`
		TotalEarnings    Money            `json:"totalEarnings"`
		SessionsCount    int              `json:"sessionsCount"`
	}

	Session struct {
		ID        string        `json:"id"`
		ClientID  string        `json:"clientId"`
		StaffID   string        `json:"staffId"`
		Date      Date          `json:"date"`
		StartTime string        `json:"startTime"`
		Duration  int           `json:"duration"` // minutes
		Type      SessionType   `json:"type"`
		Fee       Money         `json:"fee"`
		Status    SessionStatus `json:"status"`
		MarkedBy  string        `json:"markedBy,omitempty"`
		Notes     string        `json:"notes,omitempty"`
	}

	Payment struct {
		ID         string        `json:"id"`
		ClientID   string        `json:"clientId"`
		Amount     Money         `json:"amount"`
		Date       Date          `json:"date"`
		Method     PaymentMethod `json:"method"`
		SessionIDs []string      `json:"sessionIds"`
		Notes      string        `json:"notes,omitempty"`
	}
)

var (
	ErrInvalidDay              = errors.New("invalid day")
	ErrInvalidMonth            = errors.New("invalid month")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidName             = errors.New("name must be between 2 and 100 characters")
	ErrInvalidEmail            = errors.New("invalid email address")
	ErrInvalidPhone            = errors.New("phone number must be between 10 and 20 characters")
	ErrNegativeBalance         = errors.New("balance cannot be negative")
	ErrInvalidRate             = errors.New("invalid compensation rate")
	ErrInvalidCompensationType = errors.New("invalid compensation type")
	ErrInvalidSessionType      = errors.New("invalid session type")
	ErrInvalidSessionStatus    = errors.New("invalid session status")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrInvalidDuration         = errors.New("duration must be positive")
	ErrInvalidStartTime        = errors.New("start time must be HH:MM")
	ErrMissingClient           = errors.New("client is required")
	ErrMissingStaff            = errors.New("staff member is required")
)

var startTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func (t CompensationType) IsValid() bool {
	switch t {
	case CompensationPercentage, CompensationFixed:
		return true
	}
	return false
}

func (t *CompensationType) UnmarshalText(b []byte) error {
	v := CompensationType(b)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCompensationType, b)
	}
	*t = v
	return nil
}

func (t SessionType) IsValid() bool {
	return t == SessionOnline || t == SessionOffline
}

func (t *SessionType) UnmarshalText(b []byte) error {
	v := SessionType(b)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSessionType, b)
	}
	*t = v
	return nil
}

func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s *SessionStatus) UnmarshalText(b []byte) error {
	v := SessionStatus(b)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSessionStatus, b)
	}
	*s = v
	return nil
}

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodCard, MethodBankTransfer:
		return true
	}
	return false
}

func (m *PaymentMethod) UnmarshalText(b []byte) error {
	v := PaymentMethod(b)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, b)
	}
	*m = v
	return nil
}

// PaymentMethods lists the accepted methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{MethodCash, MethodUPI, MethodCard, MethodBankTransfer}
}

// EarningsFor returns what the staff member earns for a session charged at fee.
// Percentage rates apply to the fee, fixed rates are a flat amount per session.
func (s Staff) EarningsFor(fee Money) Money {
	rate := MoneyFromFloat(s.CompensationRate)
	if s.CompensationType == CompensationFixed {
		return rate
	}
	return fee.Percent(s.CompensationRate)
}

func validateContact(name, email, phone string) error {
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < 2 || n > 100 {
		return ErrInvalidName
	}
	email = strings.TrimSpace(email)
	if len(email) > 255 {
		return ErrInvalidEmail
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	phone = strings.TrimSpace(phone)
	if n := len(phone); n < 10 || n > 20 {
		return ErrInvalidPhone
	}
	return nil
}

func (c Client) Validate() error {
	if err := validateContact(c.Name, c.Email, c.Phone); err != nil {
		return err
	}
	if c.Balance.IsNegative() {
		return ErrNegativeBalance
	}
	return nil
}

func (s Staff) Validate() error {
	if err := validateContact(s.Name, s.Email, s.Phone); err != nil {
		return err
	}
	if !s.CompensationType.IsValid() {
		return ErrInvalidCompensationType
	}
	if s.CompensationRate < 0 {
		return ErrInvalidRate
	}
	if s.CompensationType == CompensationPercentage && s.CompensationRate > 100 {
		return fmt.Errorf("%w: percentage must be at most 100", ErrInvalidRate)
	}
	return nil
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.ClientID) == "" {
		return ErrMissingClient
	}
	if strings.TrimSpace(s.StaffID) == "" {
		return ErrMissingStaff
	}
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if !startTimePattern.MatchString(s.StartTime) {
		return ErrInvalidStartTime
	}
	if s.Duration <= 0 {
		return ErrInvalidDuration
	}
	if !s.Type.IsValid() {
		return ErrInvalidSessionType
	}
	if s.Fee.IsNegative() {
		return ErrInvalidAmount
	}
	if !s.Status.IsValid() {
		return ErrInvalidSessionStatus
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrMissingClient
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if !p.Method.IsValid() {
		return ErrInvalidPaymentMethod
	}
	if len(p.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}
