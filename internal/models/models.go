package models

import (
	"time"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"not null;index"            json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	Price       float64   `gorm:"not null"                  json:"price"`
	Category    string    `gorm:"not null;index"            json:"category"`
	Image       string    `json:"image"`
	Brand       string    `json:"brand"`
	Stock       uint      `json:"stock"`
	Reviews     []Review  `gorm:"constraint:OnDelete:CASCADE" json:"reviews"`
	Rating      float64   `json:"rating"`
	NumReviews  int       `json:"num_reviews"`
	Featured    bool      `gorm:"index"                     json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey"                               json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_review_author"   json:"product_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_author"   json:"user_id"`
	Name      string    `gorm:"not null"                                 json:"name"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5"    json:"rating"`
	Comment   string    `gorm:"not null"                                 json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string  `gorm:"not null"                 json:"name"`
	Email        string  `gorm:"unique;not null"          json:"email"`
	PasswordHash string  `gorm:"not null"                 json:"-"`
	Role         string  `gorm:"not null"                 json:"role"`
	Address      Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool { return u.Role == "admin" }

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// OrderItem is a snapshot of the product at order time. Later product
// edits do not touch it.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	OrderID   uint    `gorm:"index;not null"              json:"order_id"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Name      string  `gorm:"not null"                    json:"name"`
	Image     string  `json:"image"`
	Price     float64 `gorm:"not null"                    json:"price"`
	Quantity  uint    `gorm:"not null;check:quantity>0"   json:"quantity"`
}

type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type Order struct {
	ID              uint          `gorm:"primaryKey"     json:"id"`
	UserID          uint          `gorm:"index;not null" json:"user_id"`
	Items           []OrderItem   `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	ShippingAddress Address       `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	PaymentMethod   string        `gorm:"not null"       json:"payment_method"`
	PaymentResult   PaymentResult `gorm:"embedded;embeddedPrefix:payment_" json:"payment_result"`
	ItemsPrice      float64       `gorm:"not null"       json:"items_price"`
	ShippingPrice   float64       `gorm:"not null"       json:"shipping_price"`
	TaxPrice        float64       `gorm:"not null"       json:"tax_price"`
	TotalPrice      float64       `gorm:"not null"       json:"total_price"`
	IsPaid          bool          `gorm:"default:false"  json:"is_paid"`
	PaidAt          *time.Time    `json:"paid_at"`
	IsDelivered     bool          `gorm:"default:false"  json:"is_delivered"`
	DeliveredAt     *time.Time    `json:"delivered_at"`
	Status          string        `gorm:"not null"       json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

func ValidStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// statusRank orders the forward lifecycle. Cancelled sits outside the
// chain and is handled separately.
func statusRank(s string) int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusProcessing:
		return 1
	case OrderStatusShipped:
		return 2
	case OrderStatusDelivered:
		return 3
	}
	return -1
}

// CanTransition reports whether an order may move from one lifecycle
// status to another: forward-only along
// pending -> processing -> shipped -> delivered, with cancelled
// reachable from any state that is not already delivered or cancelled.
func CanTransition(from, to string) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	if to == OrderStatusCancelled {
		return from != OrderStatusDelivered && from != OrderStatusCancelled
	}
	if from == OrderStatusCancelled {
		return false
	}
	return statusRank(to) > statusRank(from)
}
