package chat

// Role is a group member role as reported by the chat daemon.
type Role string

const (
	RoleObserver Role = "observer"
	RoleAuthor   Role = "author"
	RoleMember   Role = "member"
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
)

// roleRank orders the roles that take part in permission checks.
// Observer and author are deliberately unranked: they never satisfy a
// minimum role requirement.
var roleRank = map[Role]int{
	RoleMember: 0,
	RoleAdmin:  1,
	RoleOwner:  2,
}

// Rank returns the position of r in the member < admin < owner order.
func (r Role) Rank() (int, bool) {
	n, ok := roleRank[r]
	return n, ok
}

// Satisfies reports whether r meets the minimum role min. An empty min
// imposes no requirement; an unranked r never satisfies a non-empty min.
func (r Role) Satisfies(min Role) bool {
	if min == "" {
		return true
	}
	want, ok := min.Rank()
	if !ok {
		return false
	}
	have, ok := r.Rank()
	if !ok {
		return false
	}
	return have >= want
}
