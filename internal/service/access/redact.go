package access

import (
	"github.com/jwalitptl/appointment-api/internal/model"
)

var credentialFields = []string{"password_hash", "refresh_token"}

var contactFields = []string{"email", "phone", "address", "clinic_address"}

// fields no caller may set through a generic update
var protectedFields = []string{
	"id", "role", "is_approved", "is_blocked", "password_hash", "refresh_token",
	"created_at", "updated_at", "deleted_at",
}

var clientEditable = map[Resource]map[string]bool{
	ResourceUser: {"name": true, "phone": true, "address": true},
}

// redact removes what the caller may not see. The input map is not modified.
func redact(data model.JSONMap, caller *model.UserContext, rel Relation) model.JSONMap {
	out := make(model.JSONMap, len(data))
	for k, v := range data {
		out[k] = v
	}
	if !caller.HasPermission(model.PermissionViewSensitive) {
		for _, f := range credentialFields {
			delete(out, f)
		}
	}
	if rel != RelationOwner && !caller.IsAdmin() {
		for _, f := range contactFields {
			delete(out, f)
		}
	}
	return out
}

// sanitizeUpdate drops protected fields and, for clients, anything outside the allow-list.
func sanitizeUpdate(fields model.JSONMap, caller *model.UserContext, r Resource) model.JSONMap {
	out := make(model.JSONMap, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, f := range protectedFields {
		delete(out, f)
	}
	if caller.Role == model.RoleClient {
		allowed := clientEditable[r]
		for k := range out {
			if !allowed[k] {
				delete(out, k)
			}
		}
	}
	return out
}
