package domain

import "time"

type Role string

const (
	RoleGuest   Role = "guest"
	RoleMember  Role = "member"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleMember, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CanManage reports whether the user may act on other users' quotes and reservations.
func (u User) CanManage() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}

// CanView reports whether the user may read a record owned by ownerID.
func (u User) CanView(ownerID string) bool {
	return u.CanManage() || u.ID == ownerID
}
