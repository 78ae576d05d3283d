package directory

type Role string

const (
	RoleMember  Role = "member"
	RoleManager Role = "manager"
)

type User struct {
	Id          int
	Uid         string
	DisplayName string
	Role        Role
	Active      bool
}

// Group is a budget-holding organizational unit. Every group designates exactly
// one project manager who reviews requests submitted within the group.
type Group struct {
	Id        int
	Uid       string
	Name      string
	PMUserId  int
	MemberIds []int
}

func (g Group) IsMember(userId int) bool {
	for _, id := range g.MemberIds {
		if id == userId {
			return true
		}
	}
	return false
}
