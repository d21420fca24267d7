package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	PaymentCOD    = "cod"
	PaymentOnline = "online"
)

const OrderStatusPending = "Pending"

// LowStockThreshold is the inclusive quantity at or below which a product is low on stock.
const LowStockThreshold = 10

// MaxLineQuantity caps the quantity of a single cart line, merges included.
const MaxLineQuantity = 1000

// User and Admin live in separate tables, so the two login pools never overlap.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"    json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"    json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"    json:"email"`
	PasswordHash string    `gorm:"not null"                json:"-"`
	Role         string    `gorm:"not null;default:user"   json:"role"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Admin struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"    json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"    json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"    json:"email"`
	PasswordHash string    `gorm:"not null"                json:"-"`
	Role         string    `gorm:"not null;default:admin"  json:"role"`
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Name         string    `gorm:"not null"                      json:"name"`
	Description  string    `json:"description"`
	Quantity     int       `gorm:"not null;check:quantity >= 0"  json:"quantity"`
	Price        float64   `gorm:"not null;check:price >= 0"     json:"price"`
	Supplier     string    `json:"supplier"`
	LastModified time.Time `gorm:"index;autoUpdateTime:false"    json:"timestamp"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CartItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// Cart is stored as one document per user; Items never holds the same product twice.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"         json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Items     []CartItem `gorm:"serializer:json"              json:"items"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime:false"         json:"updatedAt"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ItemCount is the sum of quantities, always derived from Items.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// OrderItem is a value copy taken at checkout; it never follows later catalog edits.
type OrderItem struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
}

type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Phone    string `json:"phone"`
}

type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"                        json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null"                   json:"userId"`
	Items            []OrderItem     `gorm:"serializer:json;not null"                   json:"items"`
	ShippingAddress  ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"          json:"shippingAddress"`
	PaymentMethod    string          `gorm:"not null"                                   json:"paymentMethod"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	PaymentVerified  bool            `gorm:"not null;default:false"                     json:"paymentVerified"`
	TotalAmount      float64         `gorm:"not null"                                   json:"totalAmount"`
	Status           string          `gorm:"not null;default:Pending"                   json:"status"`
	CreatedAt        time.Time       `gorm:"index;autoCreateTime:false"                 json:"createdAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &Admin{}, &Product{}, &Cart{}, &Order{}}
}
