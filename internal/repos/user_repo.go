package repos

import (
	"maplecart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

func (r *UserRepo) List() ([]domain.User, error) {
	var users []domain.User
	err := r.DB.Select(&users, `SELECT id,email,name,password_hash,role FROM users WHERE role != 'ADMIN' ORDER BY email`)
	return users, err
}

// DeleteUserCascade cancels the user's open orders and deletes user-related
// data (sessions, carts, wishlists) while keeping order rows for audit.
func (r *UserRepo) DeleteUserCascade(userID string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var sessionIDs []string
	if err := tx.Select(&sessionIDs, `SELECT id FROM sessions WHERE user_id=?`, userID); err != nil {
		return err
	}

	if len(sessionIDs) > 0 {
		// Cancelling an order releases its stock, here exactly as in
		// OrderRepo.Cancel: flip the status, then restock every line.
		query, args, err := sqlx.In(`
			SELECT id FROM orders
			WHERE session_id IN (?) AND is_delivered = 0 AND status NOT IN ('cancelled','refunded')`, sessionIDs)
		if err != nil {
			return err
		}
		var orderIDs []string
		if err := tx.Select(&orderIDs, query, args...); err != nil {
			return err
		}
		for _, oid := range orderIDs {
			if _, err := tx.Exec(`
				UPDATE orders SET status='cancelled', updated_at=CURRENT_TIMESTAMP
				WHERE id = ?`, oid); err != nil {
				return err
			}
			type line struct {
				ProductID string `db:"product_id"`
				Qty       int    `db:"qty"`
			}
			var lines []line
			if err := tx.Select(&lines, `SELECT product_id, qty FROM order_items WHERE order_id = ?`, oid); err != nil {
				return err
			}
			for _, l := range lines {
				if _, err := tx.Exec(`
					UPDATE products
					SET count_in_stock = count_in_stock + ?, in_stock = 1, updated_at = CURRENT_TIMESTAMP
					WHERE id = ?`, l.Qty, l.ProductID); err != nil {
					return err
				}
			}
		}
		query, args, err = sqlx.In(`DELETE FROM carts WHERE id IN (?)`, sessionIDs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
		query, args, err = sqlx.In(`DELETE FROM wishlists WHERE id IN (?)`, sessionIDs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
		query, args, err = sqlx.In(`DELETE FROM sessions WHERE id IN (?)`, sessionIDs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM users WHERE id=?`, userID); err != nil {
		return err
	}

	return tx.Commit()
}
