package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clinic/internal/amqp"
	"clinic/internal/core"
	"clinic/internal/log"
	"clinic/internal/state"
)

// ErrNothingOutstanding is returned by QuickPayment for a client who owes nothing.
var ErrNothingOutstanding = errors.New("client has no outstanding balance")

// Publisher announces committed changes. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.ChangeMessage) error
}

// ClinicService orchestrates mutations: it commits to the state store first
// and then announces the change on the feed. Publishing is best-effort and
// never fails a committed mutation.
type ClinicService struct {
	store     *state.Store
	publisher Publisher
	ids       core.IDGenerator
	now       func() time.Time
	loc       *time.Location
}

type Option func(*ClinicService)

func WithIDGenerator(g core.IDGenerator) Option {
	return func(s *ClinicService) { s.ids = g }
}

// WithClock sets the time source and the location that defines "today".
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(s *ClinicService) {
		s.now = now
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewClinicService(store *state.Store, publisher Publisher, opts ...Option) *ClinicService {
	s := &ClinicService{
		store:     store,
		publisher: publisher,
		ids:       core.UUIDGenerator{},
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ClinicService) Store() *state.Store { return s.store }

// Today is the current calendar date in the clinic's location.
func (s *ClinicService) Today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

// CreateClient assigns an id and creation date. Balance is kept as supplied;
// the session counter starts at zero.
func (s *ClinicService) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	c.ID = s.ids.NewID(core.PrefixClient)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.Today()
	}
	c.TotalSessions = 0
	if err := s.store.AddClient(ctx, c); err != nil {
		return core.Client{}, fmt.Errorf("create client: %w", err)
	}
	s.logChange(ctx, log.OpCreate, amqp.CollectionClients, c.ID)
	s.publish(ctx, amqp.CollectionClients, amqp.OpCreated, c.ID)
	return c, nil
}

// UpdateClient overwrites the editable fields; creation date and session
// counter are kept from the stored record.
func (s *ClinicService) UpdateClient(ctx context.Context, c core.Client) (core.Client, error) {
	err := s.store.Commit(ctx, func(tx *state.Tx) error {
		cur, ok := tx.Client(c.ID)
		if !ok {
			return fmt.Errorf("%w: client %s", state.ErrNotFound, c.ID)
		}
		c.CreatedAt = cur.CreatedAt
		c.TotalSessions = cur.TotalSessions
		_, err := tx.UpdateClient(c)
		return err
	})
	if err != nil {
		return core.Client{}, fmt.Errorf("update client: %w", err)
	}
	s.logChange(ctx, log.OpUpdate, amqp.CollectionClients, c.ID)
	s.publish(ctx, amqp.CollectionClients, amqp.OpUpdated, c.ID)
	return c, nil
}

// DeleteClient removes the client with its sessions and payments.
func (s *ClinicService) DeleteClient(ctx context.Context, id string) (state.Removed, error) {
	removed, err := s.store.DeleteClient(ctx, id)
	if err != nil {
		return removed, fmt.Errorf("delete client: %w", err)
	}
	s.logChange(ctx, log.OpDelete, amqp.CollectionClients, id)
	s.publish(ctx, amqp.CollectionClients, amqp.OpDeleted, id)
	if len(removed.Sessions) > 0 {
		s.publish(ctx, amqp.CollectionSessions, amqp.OpDeleted, removed.Sessions...)
	}
	if len(removed.Payments) > 0 {
		s.publish(ctx, amqp.CollectionPayments, amqp.OpDeleted, removed.Payments...)
	}
	return removed, nil
}

func (s *ClinicService) CreateStaff(ctx context.Context, m core.Staff) (core.Staff, error) {
	m.ID = s.ids.NewID(core.PrefixStaff)
	if err := s.store.AddStaff(ctx, m); err != nil {
		return core.Staff{}, fmt.Errorf("create staff: %w", err)
	}
	s.logChange(ctx, log.OpCreate, amqp.CollectionStaff, m.ID)
	s.publish(ctx, amqp.CollectionStaff, amqp.OpCreated, m.ID)
	return m, nil
}

// UpdateStaff overwrites contact and compensation fields. The informational
// counters are kept from the stored record.
func (s *ClinicService) UpdateStaff(ctx context.Context, m core.Staff) (core.Staff, error) {
	err := s.store.Commit(ctx, func(tx *state.Tx) error {
		for _, cur := range tx.Staff() {
			if cur.ID == m.ID {
				m.TotalEarnings = cur.TotalEarnings
				m.SessionsCount = cur.SessionsCount
				break
			}
		}
		_, err := tx.UpdateStaff(m)
		return err
	})
	if err != nil {
		return core.Staff{}, fmt.Errorf("update staff: %w", err)
	}
	s.logChange(ctx, log.OpUpdate, amqp.CollectionStaff, m.ID)
	s.publish(ctx, amqp.CollectionStaff, amqp.OpUpdated, m.ID)
	return m, nil
}

// DeleteStaff removes the staff member and the sessions assigned to them.
func (s *ClinicService) DeleteStaff(ctx context.Context, id string) (state.Removed, error) {
	removed, err := s.store.DeleteStaff(ctx, id)
	if err != nil {
		return removed, fmt.Errorf("delete staff: %w", err)
	}
	s.logChange(ctx, log.OpDelete, amqp.CollectionStaff, id)
	s.publish(ctx, amqp.CollectionStaff, amqp.OpDeleted, id)
	if len(removed.Sessions) > 0 {
		s.publish(ctx, amqp.CollectionSessions, amqp.OpDeleted, removed.Sessions...)
	}
	return removed, nil
}

func (s *ClinicService) CreateSession(ctx context.Context, sess core.Session) (core.Session, error) {
	sess.ID = s.ids.NewID(core.PrefixSession)
	if sess.Status == "" {
		sess.Status = core.StatusScheduled
	}
	if err := s.store.AddSession(ctx, sess); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}
	s.logChange(ctx, log.OpCreate, amqp.CollectionSessions, sess.ID)
	s.publish(ctx, amqp.CollectionSessions, amqp.OpCreated, sess.ID)
	return sess, nil
}

func (s *ClinicService) UpdateSession(ctx context.Context, sess core.Session) (core.Session, error) {
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return core.Session{}, fmt.Errorf("update session: %w", err)
	}
	s.logChange(ctx, log.OpUpdate, amqp.CollectionSessions, sess.ID)
	s.publish(ctx, amqp.CollectionSessions, amqp.OpUpdated, sess.ID)
	return sess, nil
}

// SetSessionStatus moves a session to any status. markedBy is recorded only
// when non-empty.
func (s *ClinicService) SetSessionStatus(ctx context.Context, id string, status core.SessionStatus, markedBy string) (core.Session, error) {
	var updated core.Session
	err := s.store.Commit(ctx, func(tx *state.Tx) error {
		for _, cur := range tx.Sessions() {
			if cur.ID != id {
				continue
			}
			cur.Status = status
			if markedBy != "" {
				cur.MarkedBy = markedBy
			}
			updated = cur
			_, err := tx.UpdateSession(cur)
			return err
		}
		return fmt.Errorf("%w: session %s", state.ErrNotFound, id)
	})
	if err != nil {
		return core.Session{}, fmt.Errorf("set session status: %w", err)
	}
	s.logChange(ctx, log.OpUpdate, amqp.CollectionSessions, id)
	s.publish(ctx, amqp.CollectionSessions, amqp.OpUpdated, id)
	return updated, nil
}

func (s *ClinicService) DeleteSession(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logChange(ctx, log.OpDelete, amqp.CollectionSessions, id)
	s.publish(ctx, amqp.CollectionSessions, amqp.OpDeleted, id)
	return nil
}

// RecordPayment stores p as the newest payment and debits the client in the
// same commit.
func (s *ClinicService) RecordPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	p.ID = s.ids.NewID(core.PrefixPayment)
	p.SessionIDs = []string{}
	if p.Date.IsZero() {
		p.Date = s.Today()
	}
	err := s.store.Commit(ctx, func(tx *state.Tx) error {
		if err := tx.AddPayment(p); err != nil {
			return err
		}
		tx.SetClients(ApplyPaymentAdded(tx.Clients(), p))
		return nil
	})
	if err != nil {
		return core.Payment{}, fmt.Errorf("record payment: %w", err)
	}
	s.logPayment(ctx, log.OpCreate, p)
	s.publish(ctx, amqp.CollectionPayments, amqp.OpCreated, p.ID)
	return p, nil
}

// UpdatePayment replaces a payment and moves its balance effect. Session ids
// are kept from the stored payment when p carries none.
func (s *ClinicService) UpdatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	err := s.store.Commit(ctx, func(tx *state.Tx) error {
		old, ok := tx.Payment(p.ID)
		if !ok {
			return fmt.Errorf("%w: payment %s", state.ErrNotFound, p.ID)
		}
		if p.SessionIDs == nil {
			p.SessionIDs = old.SessionIDs
		}
		if _, err := tx.UpdatePayment(p); err != nil {
			return err
		}
		tx.SetClients(ApplyPaymentEdited(tx.Clients(), old, p))
		return nil
	})
	if err != nil {
		return core.Payment{}, fmt.Errorf("update payment: %w", err)
	}
	s.logPayment(ctx, log.OpUpdate, p)
	s.publish(ctx, amqp.CollectionPayments, amqp.OpUpdated, p.ID)
	return p, nil
}

// DeletePayment removes a payment and restores the amount to its client.
func (s *ClinicService) DeletePayment(ctx context.Context, id string) error {
	var removed core.Payment
	err := s.store.Commit(ctx, func(tx *state.Tx) error {
		old, err := tx.RemovePayment(id)
		if err != nil {
			return err
		}
		removed = old
		tx.SetClients(ApplyPaymentDeleted(tx.Clients(), old))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	s.logPayment(ctx, log.OpDelete, removed)
	s.publish(ctx, amqp.CollectionPayments, amqp.OpDeleted, id)
	return nil
}

// QuickPayment records a payment covering the client's whole balance.
func (s *ClinicService) QuickPayment(ctx context.Context, clientID string, method core.PaymentMethod, date core.Date) (core.Payment, error) {
	if date.IsZero() {
		date = s.Today()
	}
	p := core.Payment{
		ID:         s.ids.NewID(core.PrefixPayment),
		ClientID:   clientID,
		Date:       date,
		Method:     method,
		SessionIDs: []string{},
	}
	err := s.store.Commit(ctx, func(tx *state.Tx) error {
		c, ok := tx.Client(clientID)
		if !ok {
			return fmt.Errorf("%w: client %s", state.ErrNotFound, clientID)
		}
		if !c.Balance.IsPositive() {
			return ErrNothingOutstanding
		}
		p.Amount = c.Balance
		if err := tx.AddPayment(p); err != nil {
			return err
		}
		tx.SetClients(ApplyPaymentAdded(tx.Clients(), p))
		return nil
	})
	if err != nil {
		return core.Payment{}, fmt.Errorf("quick payment: %w", err)
	}
	s.logPayment(ctx, log.OpCreate, p)
	s.publish(ctx, amqp.CollectionPayments, amqp.OpCreated, p.ID)
	return p, nil
}

func (s *ClinicService) publish(ctx context.Context, collection, op string, ids ...string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping change message",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldCollection, collection)
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewChangeMessage(collection, op, ids...)); err != nil {
		slog.WarnContext(ctx, "Failed to publish change message",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldCollection, collection,
			log.FieldOperation, op,
			log.FieldError, err)
	}
}

func (s *ClinicService) logChange(ctx context.Context, op, collection, id string) {
	log.FromContext(ctx).WithComponent(log.ComponentState).InfoContext(ctx, "Collection changed",
		log.FieldOperation, op,
		log.FieldCollection, collection,
		"id", id)
}

func (s *ClinicService) logPayment(ctx context.Context, op string, p core.Payment) {
	fields := log.NewFields().
		WithOperation(op).
		WithPayment(p.ID, p.ClientID, p.Amount.Cents, string(p.Method))
	log.FromContext(ctx).WithComponent(log.ComponentLedger).Fields(ctx, slog.LevelInfo, "Payment reconciled", fields)
}

// Close releases the publisher when it owns a connection.
func (s *ClinicService) Close() error {
	if c, ok := s.publisher.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
