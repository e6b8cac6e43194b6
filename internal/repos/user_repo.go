package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"shopdesk/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `u.id, u.business_id, COALESCE(u.branch_id,'') AS branch_id, u.email, u.name, u.password_hash, u.role`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users u WHERE LOWER(u.email)=LOWER(?) AND u.is_active=1`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Staff returns an active staff member of the business.
func (r *UserRepo) Staff(ctx context.Context, businessID, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users u WHERE u.business_id=? AND u.id=? AND u.is_active=1`, businessID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ListStaff(ctx context.Context, businessID string) ([]domain.User, error) {
	var out []domain.User
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM users u WHERE u.business_id=? AND u.is_active=1 ORDER BY u.name`, businessID)
	return out, err
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
      SELECT `+userCols+`
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=? AND u.is_active=1`, sid)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
