// Package domain contains the branch model. A branch is one school site; all
// records are scoped to a branch the way the request middleware resolves it.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Branch struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Currency  string       `gorm:"type:text;not null;default:'UGX'" json:"currency"`
	Phone     string       `gorm:"type:text" json:"phone,omitempty"`
	Address   string       `gorm:"type:text" json:"address,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Branch) TableName() string { return "branches" }
