package domain

const (
	RoleOwner   = "OWNER"
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
)

// User is a staff member of one business.
type User struct {
	ID         string `db:"id" json:"id"`
	BusinessID string `db:"business_id" json:"business_id"`
	BranchID   string `db:"branch_id" json:"branch_id,omitempty"`
	Email      string `db:"email" json:"email"`
	Name       string `db:"name" json:"name"`
	Hash       string `db:"password_hash" json:"-"`
	Role       string `db:"role" json:"role"`
}

// CanManageStock reports whether the user may edit inventory.
func (u User) CanManageStock() bool {
	return u.Role == RoleOwner || u.Role == RoleManager
}
