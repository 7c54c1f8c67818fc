// Package models contains the GORM persistence models and their conversions
// to and from domain entities.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primary_key"`
	OrderNumber   string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_orders_number"`
	IntakeDate    time.Time            `gorm:"not null;index:idx_orders_intake_date"`
	Status        ordering.OrderStatus `gorm:"type:varchar(20);not null;index:idx_orders_status"`
	RemoteID      string               `gorm:"type:varchar(100);index:idx_orders_remote_id"`
	ShipToJSON    string               `gorm:"type:jsonb;column:ship_to"`
	CarrierCode   string               `gorm:"type:varchar(50)"`
	ServiceCode   string               `gorm:"type:varchar(100)"`
	Priority      bool                 `gorm:"not null;default:false"`
	FailureReason string               `gorm:"type:text"`
	CreatedAt     time.Time            `gorm:"not null"`
	UpdatedAt     time.Time            `gorm:"not null"`

	Items []OrderLineItemModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineItemModel is the persistence model for one order line item
type OrderLineItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_order_items_order"`
	ProductCode string          `gorm:"type:varchar(100);not null"`
	Quantity    decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *ordering.Order {
	order := &ordering.Order{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderNumber:   m.OrderNumber,
		IntakeDate:    m.IntakeDate,
		Status:        m.Status,
		RemoteID:      m.RemoteID,
		CarrierCode:   m.CarrierCode,
		ServiceCode:   m.ServiceCode,
		Priority:      m.Priority,
		FailureReason: m.FailureReason,
	}

	if m.ShipToJSON != "" {
		var addr valueobject.Address
		if err := json.Unmarshal([]byte(m.ShipToJSON), &addr); err == nil {
			order.ShipTo = addr
		}
	}

	order.Items = make([]ordering.OrderLineItem, 0, len(m.Items))
	for _, item := range m.Items {
		order.Items = append(order.Items, ordering.OrderLineItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	return order
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(order *ordering.Order) {
	m.ID = order.ID
	m.OrderNumber = order.OrderNumber
	m.IntakeDate = order.IntakeDate
	m.Status = order.Status
	m.RemoteID = order.RemoteID
	m.CarrierCode = order.CarrierCode
	m.ServiceCode = order.ServiceCode
	m.Priority = order.Priority
	m.FailureReason = order.FailureReason
	m.CreatedAt = order.CreatedAt
	m.UpdatedAt = order.UpdatedAt

	if jsonBytes, err := json.Marshal(order.ShipTo); err == nil {
		m.ShipToJSON = string(jsonBytes)
	}

	m.Items = make([]OrderLineItemModel, 0, len(order.Items))
	for _, item := range order.Items {
		m.Items = append(m.Items, OrderLineItemModel{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		})
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(order *ordering.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(order)
	return m
}
