package domain

type Category struct {
	ID        string `db:"id" json:"id"`
	ParentID  string `db:"parent_id" json:"parent_id,omitempty"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

type Product struct {
	ID           string `db:"id" json:"id"`
	CategoryID   string `db:"category_id" json:"category_id"`
	Title        string `db:"title" json:"title"`
	Description  string `db:"description" json:"description"`
	Brand        string `db:"brand" json:"brand"`
	PriceCents   int64  `db:"price_cents" json:"price_cents"`
	CountInStock int    `db:"count_in_stock" json:"count_in_stock"`
	InStock      bool   `db:"in_stock" json:"in_stock"`
	ImagesJSON   string `db:"images_json" json:"images_json,omitempty"`
	Active       bool   `db:"active" json:"active"`
	CreatedAt    string `db:"created_at" json:"created_at"`
	UpdatedAt    string `db:"updated_at" json:"updated_at,omitempty"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}
