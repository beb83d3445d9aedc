package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null"             json:"name"`
	Description string    `gorm:"not null"             json:"description"`
	Price       float64   `gorm:"not null;check:price>=0" json:"price"`
	Image       string    `json:"image"`
	Category    string    `gorm:"index;not null"       json:"category"`
	IsFeatured  bool      `gorm:"index;default:false"  json:"isFeatured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                   json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"userId"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"productId"`
	Quantity  uint      `gorm:"default:1;check:quantity>0"             json:"quantity"`
}

type Coupon struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	Code               string    `gorm:"uniqueIndex;not null"   json:"code"`
	DiscountPercentage int       `gorm:"not null;check:discount_percentage>=0 AND discount_percentage<=100" json:"discountPercentage"`
	ExpirationDate     time.Time `gorm:"not null"               json:"expirationDate"`
	IsActive           bool      `gorm:"index;default:true"     json:"isActive"`
	UserID             uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	CreatedAt          time.Time `json:"createdAt"`
}

type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"    json:"id"`
	UserID          uuid.UUID   `gorm:"type:uuid;index;not null" json:"userId"`
	Items           []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"products"`
	TotalAmount     float64     `gorm:"not null"                json:"totalAmount"`
	StripeSessionID string      `gorm:"uniqueIndex;not null"    json:"stripeSessionId"`
	CreatedAt       time.Time   `json:"createdAt"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"       json:"product"`
	Quantity  uint      `gorm:"not null;check:quantity>0" json:"quantity"`
	Price     float64   `gorm:"not null"                 json:"price"`
}

// RefreshToken is the SQL fallback for the refresh credential store: one
// row per user holding the hash of the only valid refresh token.
type RefreshToken struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	TokenHash string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	UpdatedAt time.Time
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error      { newID(&u.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error   { newID(&p.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error  { newID(&c.ID); return nil }
func (c *Coupon) BeforeCreate(*gorm.DB) error    { newID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error     { newID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error { newID(&i.ID); return nil }

func (CartItem) TableName() string { return "cart_items" }

// All lists every table for AutoMigrate.
func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}, &Coupon{}, &Order{}, &OrderItem{}, &RefreshToken{}}
}
