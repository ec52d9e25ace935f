package entity

// Principal is the caller identity handed to every policy and service call.
// The zero value is the anonymous caller.
type Principal struct {
	UserID        int64
	Email         string
	Role          Role
	Authenticated bool
}

func Anonymous() Principal { return Principal{} }

func NewPrincipal(userID int64, email string, role Role) Principal {
	return Principal{UserID: userID, Email: email, Role: role, Authenticated: true}
}

func (p Principal) IsAdmin() bool { return p.Authenticated && p.Role == RoleAdmin }
