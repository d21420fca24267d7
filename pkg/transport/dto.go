package transport

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AccountView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      AccountView `json:"user"`
}

type ProfileView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6"`
}

type CreateProductRequest struct {
	Name        string   `json:"name"        validate:"required"`
	Description string   `json:"description"`
	Quantity    *int     `json:"quantity"    validate:"required,gte=0"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Supplier    string   `json:"supplier"`
}

type PatchProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Quantity    *int     `json:"quantity"    validate:"omitempty,gte=0"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Supplier    *string  `json:"supplier"`
}

type ActivityView struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type SearchResponse struct {
	Total int64 `json:"total"`
	Items any   `json:"items"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"  validate:"gte=0,lte=1000"`
}

type CartProduct struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
}

type CartLine struct {
	ProductID uuid.UUID    `json:"productId"`
	Quantity  int          `json:"quantity"`
	Product   *CartProduct `json:"product,omitempty"`
}

type CartView struct {
	Items     []CartLine `json:"items"`
	ItemCount int        `json:"itemCount"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type ShippingAddress struct {
	FullName    string `json:"fullName"    validate:"required"`
	Phone       string `json:"phone"       validate:"required,len=10,number"`
	Address     string `json:"address"     validate:"required"`
	City        string `json:"city"        validate:"required"`
	State       string `json:"state"       validate:"required"`
	Pincode     string `json:"pincode"     validate:"required,len=6,number"`
	AddressType string `json:"addressType" validate:"omitempty,oneof=home work"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Name      string    `json:"name"      validate:"required"`
	Price     float64   `json:"price"     validate:"gte=0"`
	Quantity  int       `json:"quantity"  validate:"gte=1"`
}

// PaymentProof is what the hosted payment step hands back after a successful charge.
type PaymentProof struct {
	GatewayOrderID string `json:"gatewayOrderId" validate:"required"`
	PaymentID      string `json:"paymentId"      validate:"required"`
	Signature      string `json:"signature"`
}

type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"items"           validate:"required,min=1,dive"`
	ShippingAddress *ShippingAddress   `json:"shippingAddress" validate:"required"`
	PaymentMethod   string             `json:"paymentMethod"   validate:"required,oneof=cod online"`
	TotalAmount     float64            `json:"totalAmount"     validate:"gte=0"`
	Payment         *PaymentProof      `json:"payment"`
}

type PlaceOrderResponse struct {
	Success     bool      `json:"success"`
	OrderID     uuid.UUID `json:"orderId"`
	Message     string    `json:"message"`
	CartCleared bool      `json:"cartCleared"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
