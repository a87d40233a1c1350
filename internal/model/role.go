// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Role is supplied by the caller; the role -> permission mapping itself
// lives outside this core. Only capability checks happen here.
type Role string

// Roles understood by the capability checks.
const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleEditor    Role = "editor"
	RoleMember    Role = "member"
)

// CanReview reports whether the role may review suggested edits.
func (r Role) CanReview() bool {
	return r == RoleAdmin || r == RoleModerator || r == RoleEditor
}

// CanModerate reports whether the role may moderate comments.
func (r Role) CanModerate() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Valid reports whether the role is one this core understands.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleEditor, RoleMember:
		return true
	}
	return false
}
