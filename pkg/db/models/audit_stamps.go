package models

import "time"

// AuditStamps are carried by every regulated table.
type AuditStamps struct {
	CreateUser string    `gorm:"column:create_user"`
	UpdateUser string    `gorm:"column:update_user"`
	CreateDate time.Time `gorm:"column:create_date;autoCreateTime"`
	UpdateDate time.Time `gorm:"column:update_date;autoUpdateTime"`
}
