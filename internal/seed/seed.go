// Package seed guarantees a usable branch exists on first boot.
package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	branchdomain "github.com/shulebooks/shulebooks/internal/branch/domain"
	"gorm.io/gorm"
)

const defaultBranchName = "Main Campus"

// EnsureDefaultBranch creates the main branch when none exists. When id is
// non-zero that exact ID is used so single-school deployments can pin it via
// configuration.
func EnsureDefaultBranch(db *gorm.DB, id int64) error {
	var count int64
	if err := db.Model(&branchdomain.Branch{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	branchID := snowflake.ID(id)
	if branchID == 0 {
		node, err := snowflake.NewNode(0)
		if err != nil {
			return err
		}
		branchID = node.Generate()
	}

	now := time.Now().UTC()
	branch := branchdomain.Branch{
		ID:        branchID,
		Name:      defaultBranchName,
		Currency:  "UGX",
		CreatedAt: now,
		UpdatedAt: now,
	}
	return db.Create(&branch).Error
}
