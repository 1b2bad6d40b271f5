package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EventYear struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Year      int          `json:"year"`
	Name      string       `json:"name"`
	IsActive  bool         `json:"is_active"`
	DeletedAt *time.Time   `json:"deleted_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func (EventYear) TableName() string { return "event_years" }

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*EventYear, error)
	// FindActive returns the active, non-deleted event year or nil.
	FindActive(ctx context.Context, db *gorm.DB) (*EventYear, error)
}

var (
	ErrNotFound     = errors.New("event_year_not_found")
	ErrNoActiveYear = errors.New("no_active_event_year")
)
