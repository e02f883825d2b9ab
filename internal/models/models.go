package models

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null"                 json:"name"`
	Description string  `gorm:"not null"                 json:"description"`
	Price       float64 `gorm:"not null"                 json:"price"`
	ImgURL      string  `gorm:"not null"                 json:"img_url"`
	PriceRef    string  `json:"price_ref"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Name         string `gorm:"not null"                 json:"name"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

// CartLine holds one product for one user. The composite unique index backs
// the upsert in repo.AddToCart, so a (user, product) pair can never own two
// rows even under concurrent adds.
type CartLine struct {
	ID        uint `gorm:"primaryKey"                               json:"id"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_cart_user_prod"  json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_user_prod"  json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"               json:"quantity"`
}

type Order struct {
	ID        uint    `gorm:"primaryKey"      json:"id"`
	Reference string  `gorm:"unique;not null" json:"reference"`
	UserID    uint    `gorm:"index;not null"  json:"user_id"`
	Total     float64 `gorm:"not null"        json:"total"`
	Status    string  `gorm:"not null"        json:"status"`
	CreatedAt int64   `gorm:"not null"        json:"created_at"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey"     json:"id"`
	OrderID   uint `gorm:"index;not null" json:"order_id"`
	UserID    uint `gorm:"not null"       json:"user_id"`
	ProductID uint `gorm:"not null"       json:"product_id"`
	Quantity  uint `gorm:"not null"       json:"quantity"`
}
