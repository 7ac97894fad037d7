package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is a bill-to party. Name is the lookup key used when enriching documents.
type Customer struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"not null;uniqueIndex" json:"name"`
	CompanyName string            `gorm:"column:company_name" json:"company_name,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Email       string            `json:"email,omitempty"`
	Address     string            `json:"address,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"not null" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
