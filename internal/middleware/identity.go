// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for caller identity,
// rate limiting, and request context handling. Authentication itself
// happens upstream; this core trusts the identity headers the gateway
// injects.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lorekeep/lorekeep/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys used by the application.
const (
	ContextKeyUserID   ContextKey = "user_id"
	ContextKeyUserName ContextKey = "user_name"
	ContextKeyRole     ContextKey = "role"
)

// Identity headers set by the upstream gateway.
const (
	HeaderUserID   = "X-Lorekeep-User"
	HeaderUserName = "X-Lorekeep-User-Name"
	HeaderRole     = "X-Lorekeep-Role"
)

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// Identity reads the caller's identity headers into the request context.
// An unknown role falls back to member; an absent user stays anonymous
// until a handler that needs one rejects the request.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := model.Role(r.Header.Get(HeaderRole))
			if !role.Valid() {
				role = model.RoleMember
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyUserID, r.Header.Get(HeaderUserID))
			ctx = context.WithValue(ctx, ContextKeyUserName, r.Header.Get(HeaderUserName))
			ctx = context.WithValue(ctx, ContextKeyRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without an identified caller.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r) == "" {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing "+HeaderUserID+" header", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserID returns the caller's user ID, empty for anonymous requests.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(ContextKeyUserID).(string)
	return id
}

// UserName returns the caller's display name.
func UserName(r *http.Request) string {
	name, _ := r.Context().Value(ContextKeyUserName).(string)
	return name
}

// Role returns the caller's role, defaulting to member.
func Role(r *http.Request) model.Role {
	role, ok := r.Context().Value(ContextKeyRole).(model.Role)
	if !ok {
		return model.RoleMember
	}
	return role
}
