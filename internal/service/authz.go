package service

import (
	"duestrack/internal/domain"
)

// Action is an intent checked against the authorization gate before any
// lifecycle call touches a due.
type Action string

const (
	ActionCreateDue      Action = "create_due"
	ActionConfirmPayment Action = "confirm_payment"
	ActionClearDue       Action = "clear_due"
	ActionReadAllDues    Action = "read_all_dues"
)

// Deny reason tags. The transport layer turns them into user-facing
// messages; the tags themselves stay stable for clients and tests.
const (
	ReasonRoleInsufficient = "role-insufficient"
	ReasonCrossDepartment  = "cross-department"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

func operatorRole(role string) bool {
	return role == domain.RoleDepartmentOperator || role == domain.RoleSuperAdmin
}

// crossDepartmentReader reports whether the principal may read dues of
// every department, not just its own.
func crossDepartmentReader(p domain.Principal) bool {
	if p.Role == domain.RoleSuperAdmin {
		return true
	}
	return p.Department == domain.DeptAccounts || p.Department == domain.DeptAcademics
}

// CanPerform is the single authorization decision point. Rules, first
// match wins:
//
//  1. ACCOUNTS may confirm payments on any department's dues and read
//     everything, but may never clear a due. Certifying receipt of money and
//     certifying clearance stay disjoint authorities.
//  2. ACCOUNTS and ACADEMICS read across all departments; other mutations
//     are not granted by that.
//  3. The owning department clears its own dues.
//  4. Everything else is denied.
func CanPerform(p domain.Principal, action Action, target *domain.Due) Decision {
	switch action {
	case ActionCreateDue:
		if !operatorRole(p.Role) {
			return deny(ReasonRoleInsufficient)
		}
		return allow()

	case ActionConfirmPayment:
		if !operatorRole(p.Role) {
			return deny(ReasonRoleInsufficient)
		}
		if p.Department != domain.DeptAccounts {
			return deny(ReasonCrossDepartment)
		}
		// Whether the due is in a confirmable state (payable, pending) is a
		// lifecycle precondition, not an authority question.
		return allow()

	case ActionClearDue:
		if !operatorRole(p.Role) {
			return deny(ReasonRoleInsufficient)
		}
		if p.Department == domain.DeptAccounts {
			return deny(ReasonRoleInsufficient)
		}
		if target != nil && p.Department != target.Department {
			return deny(ReasonCrossDepartment)
		}
		return allow()

	case ActionReadAllDues:
		if crossDepartmentReader(p) {
			return allow()
		}
		return deny(ReasonCrossDepartment)

	default:
		return deny(ReasonRoleInsufficient)
	}
}

// CanReadDepartment reports whether the principal may read dues of the
// given department. HODs and plain operators see their own department;
// cross-department readers see everything.
func CanReadDepartment(p domain.Principal, department string) bool {
	if crossDepartmentReader(p) {
		return true
	}
	return p.Department == department
}
