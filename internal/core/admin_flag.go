package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type AdminFlagService struct {
	db DB
}

func NewAdminFlagService(db DB) *AdminFlagService {
	return &AdminFlagService{db: db}
}

// Enabled reports whether the admin flag is switched on. Unknown flags are off.
func (s *AdminFlagService) Enabled(ctx context.Context, id string) (bool, error) {
	var enabled bool
	err := s.db.QueryRow(ctx, `SELECT enabled FROM admin_flags WHERE id = $1`, id).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get admin flag %s: %w", id, err)
	}
	return enabled, nil
}

func (s *AdminFlagService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE admin_flags SET enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		return fmt.Errorf("set admin flag %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("Admin flag not found")
	}
	return nil
}
