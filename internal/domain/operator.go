package domain

const (
	RoleDepartmentOperator = "department_operator"
	RoleSuperAdmin         = "super_admin"
	RoleHOD                = "hod"
)

// Distinguished departments with cross-department read rights. ACCOUNTS
// additionally owns payment confirmation and is barred from clearance.
const (
	DeptAccounts  = "ACCOUNTS"
	DeptAcademics = "ACADEMICS"
)

type Operator struct {
	ID         int64
	Username   string
	FirstName  *string
	LastName   *string
	Role       string
	Department string
}

// Principal is the authenticated caller as seen by the core: role and
// department claims only, threaded explicitly into every call.
type Principal struct {
	OperatorID int64
	Role       string
	Department string
}

func (o *Operator) Principal() Principal {
	return Principal{
		OperatorID: o.ID,
		Role:       o.Role,
		Department: o.Department,
	}
}
