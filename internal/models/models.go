package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryClothing    = "clothing"
	CategoryShoes       = "shoes"
	CategoryAccessories = "accessories"
)

var Categories = []string{CategoryClothing, CategoryShoes, CategoryAccessories}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"             json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"             json:"email"`
	PasswordHash string    `gorm:"not null"                         json:"-"`
	FirstName    string    `gorm:"not null"                         json:"firstName"`
	LastName     string    `gorm:"not null"                         json:"lastName"`
	Phone        string    `                                        json:"phone"`
	Address      Address   `gorm:"embedded;embeddedPrefix:addr_"    json:"address"`
	Role         string    `gorm:"not null;default:user;index"      json:"role"`
	CreatedAt    time.Time `                                        json:"createdAt"`
	UpdatedAt    time.Time `                                        json:"updatedAt"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	TokenHash string    `gorm:"not null"             json:"-"`
	ExpiresAt int64     `gorm:"not null"             json:"expiresAt"`
	Revoked   bool      `gorm:"default:false"        json:"revoked"`
}

type Product struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"                  json:"id"`
	Name        string     `gorm:"size:100;not null"                     json:"name"`
	Description string     `gorm:"size:500;not null"                     json:"description"`
	Price       int64      `gorm:"not null;check:price >= 0"             json:"price"`
	Image       string     `gorm:"not null"                              json:"image"`
	ImageID     string     `                                             json:"imageId,omitempty"`
	Category    string     `gorm:"index:idx_products_cat_featured;not null" json:"category"`
	Sizes       StringList `                                             json:"sizes"`
	Colors      StringList `                                             json:"colors"`
	Stock       int64      `gorm:"not null;default:0;check:stock >= 0"   json:"stock"`
	Featured    bool       `gorm:"index:idx_products_cat_featured;default:false" json:"featured"`
	CreatedAt   time.Time  `                                             json:"createdAt"`
	UpdatedAt   time.Time  `                                             json:"updatedAt"`
}

type Customer struct {
	FirstName string `gorm:"not null"       json:"firstName"`
	LastName  string `gorm:"not null"       json:"lastName"`
	Email     string `gorm:"index;not null" json:"email"`
	Phone     string `gorm:"not null"       json:"phone"`
}

type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"              json:"id"`
	OrderNumber     string      `gorm:"uniqueIndex;not null"              json:"orderNumber"`
	UserID          *uuid.UUID  `gorm:"type:uuid;index"                   json:"userId,omitempty"`
	Customer        Customer    `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	ShippingAddress Address     `gorm:"embedded;embeddedPrefix:ship_"     json:"shippingAddress"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal        int64       `gorm:"not null"                          json:"subtotal"`
	Total           int64       `gorm:"not null"                          json:"total"`
	PaymentMethod   string      `gorm:"not null"                          json:"paymentMethod"`
	Notes           string      `                                         json:"notes,omitempty"`
	Status          string      `gorm:"index;not null;default:pending"    json:"status"`
	CreatedAt       time.Time   `gorm:"index"                             json:"createdAt"`
	UpdatedAt       time.Time   `                                         json:"updatedAt"`
}

type OrderItem struct {
	ID        uint      `gorm:"primaryKey"                 json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"   json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"         json:"productId"`
	Name      string    `gorm:"not null"                   json:"name"`
	Price     int64     `gorm:"not null"                   json:"price"`
	Quantity  int64     `gorm:"not null;check:quantity > 0" json:"quantity"`
	Image     string    `                                  json:"image"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey"                                    json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_user_product;not null" json:"userId"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_user_product;not null" json:"productId"`
	Product   *Product  `gorm:"foreignKey:ProductID"                          json:"product,omitempty"`
	CreatedAt time.Time `                                                     json:"createdAt"`
}

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                    json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_user_product;not null" json:"userId"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_user_product;not null" json:"productId"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"              json:"rating"`
	Comment   string    `gorm:"size:500;not null"                                       json:"comment"`
	User      *User     `gorm:"foreignKey:UserID"                                       json:"user,omitempty"`
	Product   *Product  `gorm:"foreignKey:ProductID"                                    json:"product,omitempty"`
	CreatedAt time.Time `                                                               json:"createdAt"`
	UpdatedAt time.Time `                                                               json:"updatedAt"`
}

type Blog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"       json:"id"`
	Title       string     `gorm:"size:200;not null"          json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null"       json:"slug"`
	Excerpt     string     `gorm:"size:500;not null"          json:"excerpt"`
	Content     string     `gorm:"type:text;not null"         json:"content"`
	AuthorName  string     `gorm:"not null"                   json:"authorName"`
	AuthorEmail string     `gorm:"not null"                   json:"authorEmail"`
	Image       string     `                                  json:"image"`
	ImageID     string     `                                  json:"imageId,omitempty"`
	Category    string     `gorm:"index;not null;default:General" json:"category"`
	Tags        StringList `                                  json:"tags"`
	Published   bool       `gorm:"index;default:false"        json:"published"`
	Featured    bool       `gorm:"default:false"              json:"featured"`
	Views       int64      `gorm:"not null;default:0"         json:"views"`
	CreatedAt   time.Time  `gorm:"index"                      json:"createdAt"`
	UpdatedAt   time.Time  `                                  json:"updatedAt"`
}

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	BlogID    uuid.UUID `gorm:"type:uuid;index;not null" json:"blogId"`
	Content   string    `gorm:"size:1000;not null"       json:"content"`
	User      *User     `gorm:"foreignKey:UserID"        json:"user,omitempty"`
	Blog      *Blog     `gorm:"foreignKey:BlogID"        json:"blog,omitempty"`
	CreatedAt time.Time `                                json:"createdAt"`
	UpdatedAt time.Time `                                json:"updatedAt"`
}

// PageContent is the SQL fallback row for content pages; Body holds raw JSON.
type PageContent struct {
	Key       string    `gorm:"primaryKey"         json:"key"`
	Body      string    `gorm:"type:text;not null" json:"-"`
	UpdatedAt time.Time `                          json:"updatedAt"`
}

const (
	ContactNew     = "new"
	ContactRead    = "read"
	ContactReplied = "replied"
)

type ContactMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	FirstName  string    `gorm:"not null"                   json:"firstName"`
	LastName   string    `gorm:"not null"                   json:"lastName"`
	Email      string    `gorm:"not null"                   json:"email"`
	Subject    string    `                                  json:"subject,omitempty"`
	Message    string    `gorm:"type:text;not null"         json:"message"`
	Status     string    `gorm:"index;not null;default:new" json:"status"`
	AdminNotes string    `                                  json:"adminNotes,omitempty"`
	CreatedAt  time.Time `gorm:"index"                      json:"createdAt"`
	UpdatedAt  time.Time `                                  json:"updatedAt"`
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error           { assignID(&u.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error        { assignID(&p.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error          { assignID(&o.ID); return nil }
func (r *Review) BeforeCreate(*gorm.DB) error         { assignID(&r.ID); return nil }
func (b *Blog) BeforeCreate(*gorm.DB) error           { assignID(&b.ID); return nil }
func (c *Comment) BeforeCreate(*gorm.DB) error        { assignID(&c.ID); return nil }
func (m *ContactMessage) BeforeCreate(*gorm.DB) error { assignID(&m.ID); return nil }

func All() []any {
	return []any{
		&User{}, &RefreshToken{}, &Product{}, &Order{}, &OrderItem{},
		&WishlistItem{}, &Review{}, &Blog{}, &Comment{}, &PageContent{}, &ContactMessage{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
