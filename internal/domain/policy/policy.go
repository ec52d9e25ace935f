// Package policy holds the stateless authorization predicates.
// Every function takes the caller explicitly and returns nil or a
// *errs.Error of kind Unauthenticated or Forbidden.
package policy

import (
	"strings"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
)

// Tier is the level of detail a caller may see in catalog reads.
type Tier int

const (
	TierGuest Tier = iota
	TierUser
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierAdmin:
		return "admin"
	case TierUser:
		return "user"
	default:
		return "guest"
	}
}

const (
	msgLoginRequired = "authentication required"
	msgAdminOnly     = "admin role required"
	msgNotOwner      = "access denied"
)

// DetailTier decides the catalog projection for p.
func DetailTier(p entity.Principal) Tier {
	if !p.Authenticated {
		return TierGuest
	}
	switch p.Role {
	case entity.RoleAdmin:
		return TierAdmin
	case entity.RoleUser:
		return TierUser
	default:
		return TierGuest
	}
}

// RequireAuthenticated fails for the anonymous caller.
func RequireAuthenticated(p entity.Principal) error {
	if !p.Authenticated {
		return errs.Unauthenticated(msgLoginRequired)
	}
	return nil
}

// RequireAdmin fails with Forbidden unless p is an authenticated ADMIN.
// The catalog and account surfaces answer 403 to anonymous callers too.
func RequireAdmin(p entity.Principal) error {
	if !p.Authenticated || p.Role != entity.RoleAdmin {
		return errs.Forbidden(msgAdminOnly)
	}
	return nil
}

// RequireSignedInAdmin is RequireAdmin for the loan surface, where the
// anonymous caller gets Unauthenticated first.
func RequireSignedInAdmin(p entity.Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	return RequireAdmin(p)
}

// CanManageCatalog gates author and book mutations and the author listings.
func CanManageCatalog(p entity.Principal) error { return RequireAdmin(p) }

// CanListAllLoans gates the unfiltered loan listing.
func CanListAllLoans(p entity.Principal) error { return RequireSignedInAdmin(p) }

// CanActOnUser allows ADMIN on any user and USER on itself.
func CanActOnUser(p entity.Principal, userID int64) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	switch p.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleUser:
		if p.UserID == userID {
			return nil
		}
		return errs.Forbidden(msgNotOwner)
	default:
		return errs.Forbidden(msgNotOwner)
	}
}

// CanAccessLoan covers read, return and extend of a single loan.
func CanAccessLoan(p entity.Principal, loan *entity.Loan) error {
	return CanActOnUser(p, loan.UserID)
}

// CanListUserLoans gates the per-user loan listing.
func CanListUserLoans(p entity.Principal, userID int64) error {
	return CanActOnUser(p, userID)
}

// CanCreateLoanFor allows a caller to borrow only in their own name,
// regardless of role.
func CanCreateLoanFor(p entity.Principal, userID int64) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.UserID != userID {
		return errs.Forbidden("loans can only be created for yourself")
	}
	return nil
}

// CanReadUser is CanActOnUser, except that account reads answer Forbidden
// to the anonymous caller.
func CanReadUser(p entity.Principal, userID int64) error {
	if !p.Authenticated {
		return errs.Forbidden(msgNotOwner)
	}
	return CanActOnUser(p, userID)
}

// CanReadUserByEmail compares emails case-insensitively.
func CanReadUserByEmail(p entity.Principal, email string) error {
	if !p.Authenticated {
		return errs.Forbidden(msgNotOwner)
	}
	switch p.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleUser:
		if strings.EqualFold(strings.TrimSpace(email), p.Email) {
			return nil
		}
		return errs.Forbidden(msgNotOwner)
	default:
		return errs.Forbidden(msgNotOwner)
	}
}

func CanListUsers(p entity.Principal) error { return RequireAdmin(p) }

func CanDeleteUser(p entity.Principal) error { return RequireAdmin(p) }

// CanRegister allows open registration of USER accounts. Creating an
// ADMIN requires an authenticated ADMIN caller.
func CanRegister(p entity.Principal, role entity.Role) error {
	switch role {
	case entity.RoleUser:
		return nil
	case entity.RoleAdmin:
		if p.IsAdmin() {
			return nil
		}
		return errs.Forbidden("only administrators can create admin accounts")
	default:
		return errs.Validation("invalid role", map[string]string{"role": "must be USER or ADMIN"})
	}
}

// CanTriggerReminders gates the overdue reminder broadcast.
func CanTriggerReminders(p entity.Principal) error { return RequireSignedInAdmin(p) }
