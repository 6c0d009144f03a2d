package domain

// Role is a named authority level attached to a user on a group.
type Role string

// Role constants, ordered by authority. SUPPORT outranks ADMIN for
// authorization checks but can never be granted through the role ledger.
const (
	RoleNone      Role = ""
	RoleRequestor Role = "REQUESTOR"
	RoleAssigner  Role = "ASSIGNER"
	RoleAdmin     Role = "ADMIN"
	RoleSupport   Role = "SUPPORT"
)

var roleRanks = map[Role]int{
	RoleRequestor: 1,
	RoleAssigner:  2,
	RoleAdmin:     3,
	RoleSupport:   4,
}

// ParseRole converts a string into a known Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return RoleNone, ErrValidation("unknown role %q", s)
	}
	return r, nil
}

// Rank returns the numeric authority of the role. RoleNone ranks zero.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether the role is one of the known constants.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AtLeast reports whether the role carries at least the authority of min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

// CanAssign reports whether a holder of this role may grant or revoke target.
// Assignment never escalates: a role can only hand out roles at or below its
// own rank, REQUESTOR can hand out nothing, and SUPPORT itself is never
// assignable.
func (r Role) CanAssign(target Role) bool {
	if target == RoleSupport || !target.Valid() {
		return false
	}
	if !r.AtLeast(RoleAssigner) {
		return false
	}
	return r.Rank() >= target.Rank()
}

// MaxRole returns the higher-ranked of two roles.
func MaxRole(a, b Role) Role {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
