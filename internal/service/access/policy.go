// Package access guards reads and writes of user-owned resources. Every
// decision is taken from one policy table and recorded in the access log.
package access

import (
	"github.com/jwalitptl/appointment-api/internal/model"
)

type Resource string

const (
	ResourceUser          Resource = "user"
	ResourceProvider      Resource = "provider"
	ResourceAppointment   Resource = "appointment"
	ResourceMedicalRecord Resource = "medical_record"
)

type Verb string

const (
	VerbRead   Verb = "read"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Operation names a guarded call, e.g. "user:read".
type Operation string

func OperationOf(r Resource, v Verb) Operation {
	return Operation(string(r) + ":" + string(v))
}

// Relation is how the caller relates to the target resource.
type Relation string

const (
	RelationOwner Relation = "owner"
	RelationOther Relation = "other"
)

type grant uint8

const (
	deny grant = iota
	allow
	// allowApproved is allow for providers whose account is approved
	allowApproved
)

type policyKey struct {
	role      model.Role
	operation Operation
	relation  Relation
}

type Policy map[policyKey]grant

func (p Policy) set(role model.Role, op Operation, rel Relation, g grant) Policy {
	p[policyKey{role, op, rel}] = g
	return p
}

// DefaultPolicy: owners act on their own data, admins on everything,
// approved providers on appointments they hold and on medical records.
func DefaultPolicy() Policy {
	p := Policy{}

	for _, role := range []model.Role{model.RoleClient, model.RoleProvider} {
		p.set(role, OperationOf(ResourceUser, VerbRead), RelationOwner, allow)
		p.set(role, OperationOf(ResourceUser, VerbUpdate), RelationOwner, allow)
		p.set(role, OperationOf(ResourceUser, VerbDelete), RelationOwner, allow)
		// provider profiles are public so clients can choose whom to book
		p.set(role, OperationOf(ResourceProvider, VerbRead), RelationOwner, allow)
		p.set(role, OperationOf(ResourceProvider, VerbRead), RelationOther, allow)
	}

	p.set(model.RoleProvider, OperationOf(ResourceProvider, VerbUpdate), RelationOwner, allow)

	p.set(model.RoleClient, OperationOf(ResourceAppointment, VerbRead), RelationOwner, allow)
	p.set(model.RoleProvider, OperationOf(ResourceAppointment, VerbRead), RelationOwner, allowApproved)

	p.set(model.RoleClient, OperationOf(ResourceMedicalRecord, VerbRead), RelationOwner, allow)
	for _, rel := range []Relation{RelationOwner, RelationOther} {
		p.set(model.RoleProvider, OperationOf(ResourceMedicalRecord, VerbRead), rel, allowApproved)
		p.set(model.RoleProvider, OperationOf(ResourceMedicalRecord, VerbUpdate), rel, allowApproved)
	}

	for _, r := range []Resource{ResourceUser, ResourceProvider, ResourceAppointment, ResourceMedicalRecord} {
		for _, v := range []Verb{VerbRead, VerbUpdate, VerbDelete} {
			for _, rel := range []Relation{RelationOwner, RelationOther} {
				p.set(model.RoleAdmin, OperationOf(r, v), rel, allow)
			}
		}
	}
	return p
}

// Decide evaluates the table. Blocked callers are always denied.
func (p Policy) Decide(caller *model.UserContext, op Operation, rel Relation) (bool, string) {
	if caller == nil {
		return false, "unauthenticated"
	}
	if caller.Blocked {
		return false, "caller is blocked"
	}
	switch p[policyKey{caller.Role, op, rel}] {
	case allow:
		return true, ""
	case allowApproved:
		if caller.Approved {
			return true, ""
		}
		return false, "provider not approved"
	}
	return false, "not permitted"
}
