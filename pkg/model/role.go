package model

import "time"

// Role is a row of the roles table
type Role struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name"`
	Title     string    `gorm:"column:title"`
	Level     *int      `gorm:"column:level"`
	Scope     string    `gorm:"column:scope"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

// AssignedRole is a row of the assigned_roles join table
type AssignedRole struct {
	RoleID      int64  `gorm:"column:role_id;primaryKey"`
	PrincipalID string `gorm:"column:principal_id;primaryKey"`
}

func (AssignedRole) TableName() string {
	return "assigned_roles"
}
