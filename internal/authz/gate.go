// Package authz holds the authorization gate used by both services.
// Decisions are pure functions over the caller identity carried in the
// JWT claims; DENY comes back as a sentinel error, never a panic.
package authz

import (
	"errors"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
)

var (
	// ErrPermissionDenied means the gate rejected the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSelfDemotion means an admin tried to change their own role away from ADMIN.
	ErrSelfDemotion = errors.New("admin cannot demote themselves")
	// ErrSelfDelete means an admin tried to delete their own account.
	ErrSelfDelete = errors.New("cannot delete self")
)

// Identity is the caller as resolved by the authentication middleware.
type Identity struct {
	UserID   string
	Role     models.Role
	Username string
	Email    string
}

// Gate decides whether a caller may act on a target owner's storage.
type Gate struct {
	policy Policy
}

// Policy is the role allow-list per file action, injected at startup.
type Policy struct {
	View     []models.Role
	Download []models.Role
	Upload   []models.Role
	Delete   []models.Role
}

func New(policy Policy) *Gate {
	return &Gate{policy: policy}
}

// ResolveOwner returns the effective storage owner for a request.
// An absent target, or a target equal to the caller, resolves to the
// caller. A different target is allowed for admins only.
func (g *Gate) ResolveOwner(caller Identity, targetOwnerID string) (string, error) {
	if targetOwnerID == "" || targetOwnerID == caller.UserID {
		return caller.UserID, nil
	}
	if caller.Role == models.RoleAdmin {
		return targetOwnerID, nil
	}
	return "", ErrPermissionDenied
}

// RequireRole checks the caller's role against an action allow-list.
func (g *Gate) RequireRole(caller Identity, allowed []models.Role) error {
	for _, r := range allowed {
		if caller.Role == r {
			return nil
		}
	}
	return ErrPermissionDenied
}

func (g *Gate) RequireView(caller Identity) error     { return g.RequireRole(caller, g.policy.View) }
func (g *Gate) RequireDownload(caller Identity) error { return g.RequireRole(caller, g.policy.Download) }
func (g *Gate) RequireUpload(caller Identity) error   { return g.RequireRole(caller, g.policy.Upload) }
func (g *Gate) RequireDelete(caller Identity) error   { return g.RequireRole(caller, g.policy.Delete) }

// RequireAdmin gates the user-management endpoints.
func (g *Gate) RequireAdmin(caller Identity) error {
	if caller.Role != models.RoleAdmin {
		return ErrPermissionDenied
	}
	return nil
}

// CheckRoleChange layers the self-demotion guard on top of the admin
// check: an admin may change anyone's role except their own, unless the
// new role is still ADMIN.
func (g *Gate) CheckRoleChange(caller Identity, targetUserID string, newRole *models.Role) error {
	if err := g.RequireAdmin(caller); err != nil {
		return err
	}
	if newRole != nil && targetUserID == caller.UserID && *newRole != models.RoleAdmin {
		return ErrSelfDemotion
	}
	return nil
}

// CheckUserDelete rejects admins deleting themselves.
func (g *Gate) CheckUserDelete(caller Identity, targetUserID string) error {
	if err := g.RequireAdmin(caller); err != nil {
		return err
	}
	if targetUserID == caller.UserID {
		return ErrSelfDelete
	}
	return nil
}
