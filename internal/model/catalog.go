package model

import "time"

type Category struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Slug     string `db:"slug" json:"slug"`
	IsActive bool   `db:"is_active" json:"is_active"`
	ParentID *int64 `db:"parent_id" json:"parent_id"`
}

type Product struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Slug        string  `db:"slug" json:"slug"`
	Description string  `db:"description" json:"description"`
	Price       int64   `db:"price" json:"price"`
	ImageURL    string  `db:"image_url" json:"image_url"`
	Stock       int64   `db:"stock" json:"stock"`
	SupplierID  *int64  `db:"supplier_id" json:"supplier_id"`
	CategoryID  int64   `db:"category_id" json:"category_id"`
	Rating      float64 `db:"rating" json:"rating"`
	IsActive    bool    `db:"is_active" json:"is_active"`
}

// OwnedBy reports whether the product was listed by the given user.
func (p *Product) OwnedBy(userID int64) bool {
	return p.SupplierID != nil && *p.SupplierID == userID
}

type ProductDTO struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=4096"`
	Price       int64  `json:"price" validate:"gte=0"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Stock       int64  `json:"stock" validate:"gte=0"`
	Category    int64  `json:"category" validate:"required,gt=0"`
}

func (dto *ProductDTO) Validate() map[string]string {
	return validateStruct(dto)
}

type Review struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	ProductID   int64      `db:"product_id" json:"product_id"`
	Comment     string     `db:"comment" json:"comment"`
	CommentDate *time.Time `db:"comment_date" json:"comment_date"`
	Grade       int        `db:"grade" json:"grade"`
	IsActive    bool       `db:"is_active" json:"is_active"`
}

type ReviewDTO struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Comment   string `json:"comment" validate:"max=4096"`
	Grade     int    `json:"grade" validate:"required,min=1,max=10"`
}

func (dto *ReviewDTO) Validate() map[string]string {
	return validateStruct(dto)
}

type TransactionResponse struct {
	StatusCode  int    `json:"status_code"`
	Transaction string `json:"transaction"`
}
