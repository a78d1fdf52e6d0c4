package model

import "time"

// Permission is a grant row. EntityType is one of "role", "principal" or
// "everyone"; resource columns are empty for general grants.
type Permission struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AbilityID    int64     `gorm:"column:ability_id"`
	EntityType   string    `gorm:"column:entity_type"`
	EntityID     string    `gorm:"column:entity_id"`
	ResourceType string    `gorm:"column:resource_type"`
	ResourceID   string    `gorm:"column:resource_id"`
	Forbidden    bool      `gorm:"column:forbidden"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}
