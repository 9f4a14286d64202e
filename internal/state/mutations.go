package state

import (
	"context"

	"clinic/internal/core"
)

// Single-entity shortcuts over Commit.

func (s *Store) AddClient(ctx context.Context, c core.Client) error {
	return s.Commit(ctx, func(tx *Tx) error { return tx.AddClient(c) })
}

func (s *Store) UpdateClient(ctx context.Context, c core.Client) error {
	return s.Commit(ctx, func(tx *Tx) error {
		_, err := tx.UpdateClient(c)
		return err
	})
}

func (s *Store) DeleteClient(ctx context.Context, id string) (Removed, error) {
	var removed Removed
	err := s.Commit(ctx, func(tx *Tx) error {
		var err error
		removed, err = tx.RemoveClient(id)
		return err
	})
	return removed, err
}

func (s *Store) AddStaff(ctx context.Context, m core.Staff) error {
	return s.Commit(ctx, func(tx *Tx) error { return tx.AddStaff(m) })
}

func (s *Store) UpdateStaff(ctx context.Context, m core.Staff) error {
	return s.Commit(ctx, func(tx *Tx) error {
		_, err := tx.UpdateStaff(m)
		return err
	})
}

func (s *Store) DeleteStaff(ctx context.Context, id string) (Removed, error) {
	var removed Removed
	err := s.Commit(ctx, func(tx *Tx) error {
		var err error
		removed, err = tx.RemoveStaff(id)
		return err
	})
	return removed, err
}

func (s *Store) AddSession(ctx context.Context, sess core.Session) error {
	return s.Commit(ctx, func(tx *Tx) error { return tx.AddSession(sess) })
}

func (s *Store) UpdateSession(ctx context.Context, sess core.Session) error {
	return s.Commit(ctx, func(tx *Tx) error {
		_, err := tx.UpdateSession(sess)
		return err
	})
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.Commit(ctx, func(tx *Tx) error {
		_, err := tx.RemoveSession(id)
		return err
	})
}
