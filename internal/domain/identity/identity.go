package identity

// Role is capability metadata attached to a caller at call time.
// Authorization is a per-operation check against the required role,
// not a property of the identity type itself.
type Role string

const (
	RoleLender   Role = "lender"
	RoleBorrower Role = "borrower"
)

// Actor is the authenticated caller of a ledger operation.
type Actor struct {
	ID   string
	Role Role
}

func Lender(id string) Actor   { return Actor{ID: id, Role: RoleLender} }
func Borrower(id string) Actor { return Actor{ID: id, Role: RoleBorrower} }
