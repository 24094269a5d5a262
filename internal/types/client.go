package types

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Client) TableName() string { return "client" }

// Project is one analysis campaign for a client. Domain records belong to a
// project; cross-project duplicates of one domain are expected and resolved
// explicitly.
type Project struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID       uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client         *Client   `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Status         string    `gorm:"column:status;not null;default:'active'" json:"status"`
	WorkflowStatus string    `gorm:"column:workflow_status" json:"workflow_status"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }
