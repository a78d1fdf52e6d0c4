package model

import (
	"time"

	"gorm.io/datatypes"
)

// Ability is a row of the abilities table
type Ability struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string            `gorm:"column:name"`
	Title     string            `gorm:"column:title"`
	OnlyOwned bool              `gorm:"column:only_owned"`
	Options   datatypes.JSONMap `gorm:"column:options;type:jsonb"`
	Scope     string            `gorm:"column:scope"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Ability) TableName() string {
	return "abilities"
}
