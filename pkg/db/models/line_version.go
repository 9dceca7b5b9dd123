package models

import (
	"github.com/google/uuid"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// LineVersion is embedded by every versioned line-item table. A logical line
// is identified by GroupUUID; Version equals the owning report's version. The
// effective row is the highest version at or below the queried report whose
// action is not DELETE.
type LineVersion struct {
	GroupUUID  uuid.UUID        `gorm:"column:group_uuid;type:uuid;not null;index"`
	Version    int              `gorm:"column:version;not null"`
	ActionType enums.ActionType `gorm:"column:action_type;type:action_type;not null;default:'CREATE'"`
	UserType   enums.UserType   `gorm:"column:user_type;type:user_type;not null;default:'SUPPLIER'"`
}

// Versioning returns the embedded version metadata; it gives every line-item
// model a common accessor for effective-set folding.
func (v LineVersion) Versioning() LineVersion { return v }
