package repos

import (
	"strings"

	"maplecart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, category_id, title, COALESCE(description,'') AS description, brand, price_cents, count_in_stock,
  in_stock, COALESCE(images_json,'') AS images_json, active,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) ListByCategory(catID string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE category_id = ? AND active = 1
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, catID, limit, offset)
	return out, err
}

func (r *ProductRepo) Search(q, catID, brand string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1`
	args := []any{}
	if q != "" {
		needle := "%" + strings.ToLower(q) + "%"
		where += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, needle, needle)
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}
	if brand != "" {
		where += ` AND LOWER(brand) = LOWER(?)`
		args = append(args, brand)
	}

	sql := `SELECT ` + productCols + ` FROM products WHERE ` + where + `
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, sql, args...)
	return out, err
}

// Stock returns the current count for a product.
func (r *ProductRepo) Stock(productID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT count_in_stock FROM products WHERE id = ?`, productID)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// UpsertStock sets the count for an existing product (admin restock).
func (r *ProductRepo) UpsertStock(productID string, qty int) error {
	_, err := r.db.Exec(`
		UPDATE products
		SET count_in_stock = ?, in_stock = CASE WHEN ? > 0 THEN 1 ELSE 0 END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, productID)
	return err
}
