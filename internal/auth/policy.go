// Package auth derives row-level visibility from a caller's verified identity.
// It is pure policy: no I/O, no store access. Repositories push the resulting
// scope into their WHERE clauses so out-of-scope rows are filtered at the
// query boundary, never after the fetch.
package auth

import "signdocs/internal/model"

// Scope is the visibility predicate for document rows derived from a role and
// user id. A row is visible when the scope is unrestricted or when the scoped
// column equals the scoped value. A document hidden by scope is reported
// exactly like a nonexistent one.
type Scope struct {
	all bool
	// none denies every row; produced for unknown roles.
	none   bool
	column string
	value  string
}

// scopeColumns maps each restricted role to the document column its identity
// must match. Admin tiers are handled separately as unrestricted.
var scopeColumns = map[model.Role]string{
	model.RoleSender: "creator_id",
	model.RoleUser:   "signer_id",
}

// creatorRoles are the roles allowed to create documents.
var creatorRoles = map[model.Role]bool{
	model.RoleSender:     true,
	model.RoleAdmin:      true,
	model.RoleSuperadmin: true,
}

// ScopeFor returns the visibility scope for ident. Mutation rights mirror
// read rights, so the same scope is applied to updates and deletes.
func ScopeFor(ident model.Identity) Scope {
	switch ident.Role {
	case model.RoleAdmin, model.RoleSuperadmin:
		return Scope{all: true}
	}
	col, ok := scopeColumns[ident.Role]
	if !ok {
		return Scope{none: true}
	}
	return Scope{column: col, value: ident.UserID}
}

// CanCreate reports whether the role may create documents.
func CanCreate(role model.Role) bool {
	return creatorRoles[role]
}

// Unrestricted reports whether the scope matches every row.
func (s Scope) Unrestricted() bool { return s.all }

// DeniesAll reports whether the scope matches no row.
func (s Scope) DeniesAll() bool { return s.none }

// Predicate returns the column/value equality the scope imposes. It is only
// meaningful when the scope is neither unrestricted nor deny-all.
func (s Scope) Predicate() (column, value string) { return s.column, s.value }
