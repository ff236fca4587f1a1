// Package domain contains persistence models for pay analyses.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Analysis is one reconciliation run over a pay period for a user.
type Analysis struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	Reference   string            `json:"reference" gorm:"type:text;not null;uniqueIndex"`
	UserID      string            `json:"user_id" gorm:"type:text;not null;index"`
	PeriodStart time.Time         `json:"period_start" gorm:"not null"`
	PeriodEnd   time.Time         `json:"period_end" gorm:"not null"`
	Fingerprint string            `json:"fingerprint" gorm:"type:text;index"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Analysis) TableName() string { return "analyses" }
