package account

import "github.com/Skotchmaster/boutique/internal/models"

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileRequest struct {
	FirstName *string         `json:"firstName"`
	LastName  *string         `json:"lastName"`
	Phone     *string         `json:"phone"`
	Address   *models.Address `json:"address"`
}

type AdminRequest struct {
	RegisterRequest
	Role string `json:"role"`
}

type Profile struct {
	models.User
	Wishlist []models.Product `json:"wishlist"`
}
