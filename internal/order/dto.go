package order

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/boutique/internal/models"
)

type LineRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int64     `json:"quantity"`
}

type PlaceOrderRequest struct {
	Customer        models.Customer `json:"customer"`
	ShippingAddress models.Address  `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Notes           string          `json:"notes"`
	Items           []LineRequest   `json:"items"`
}

type StatusRequest struct {
	Status string `json:"status"`
}
