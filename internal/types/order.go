package types

import (
	"time"

	"github.com/google/uuid"
)

// Assignment status values for DomainAssignment.Status.
const (
	AssignmentAssigned  = "assigned"
	AssignmentDelivered = "delivered"
	AssignmentRemoved   = "removed"
)

// Removal reasons recorded when an assignment is dropped from an order; the
// benchmark comparator reads them to classify missing domains.
const (
	RemovalUnavailable  = "unavailable"
	RemovalQualityIssue = "quality_issue"
	RemovalPriceChange  = "price_change"
)

type Order struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber  string             `gorm:"column:order_number;not null" json:"order_number"`
	Status       string             `gorm:"column:status;not null;default:'draft'" json:"status"`
	ClientGroups []OrderClientGroup `gorm:"foreignKey:OrderID;references:ID" json:"client_groups,omitempty"`
	CreatedAt    time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "link_order" }

// OrderClientGroup partitions an order by client; agency orders span several.
type OrderClientGroup struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"order_id"`
	ClientID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"client_id"`
	ClientName  string            `gorm:"column:client_name;not null" json:"client_name"`
	TargetPages []OrderTargetPage `gorm:"foreignKey:GroupID;references:ID" json:"target_pages,omitempty"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null" json:"updated_at"`
}

func (OrderClientGroup) TableName() string { return "order_client_group" }

type OrderTargetPage struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"group_id"`
	URL         string             `gorm:"column:url;not null" json:"url"`
	Assignments []DomainAssignment `gorm:"foreignKey:TargetPageID;references:ID" json:"assignments,omitempty"`
	CreatedAt   time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"not null" json:"updated_at"`
}

func (OrderTargetPage) TableName() string { return "order_target_page" }

// DomainAssignment is one placement slot on a target page: the domain currently
// filling it, its pricing, and the anchor text to use.
type DomainAssignment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TargetPageID   uuid.UUID `gorm:"type:uuid;not null;index" json:"target_page_id"`
	Domain         string    `gorm:"column:domain;not null" json:"domain"`
	AnchorText     string    `gorm:"column:anchor_text" json:"anchor_text"`
	WholesalePrice float64   `gorm:"column:wholesale_price;not null;default:0" json:"wholesale_price"`
	RetailPrice    float64   `gorm:"column:retail_price;not null;default:0" json:"retail_price"`
	Status         string    `gorm:"column:status;not null;default:'assigned'" json:"status"`
	RemovalReason  string    `gorm:"column:removal_reason" json:"removal_reason,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (DomainAssignment) TableName() string { return "domain_assignment" }

// Active reports whether the assignment counts as delivered inventory for
// benchmark comparison.
func (a DomainAssignment) Active() bool {
	return a.Status == AssignmentAssigned || a.Status == AssignmentDelivered
}
