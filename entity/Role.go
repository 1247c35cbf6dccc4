package entity

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleWaiter   Role = "waiter"
	RoleKitchen  Role = "kitchen"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleWaiter, RoleKitchen, RoleCustomer:
		return true
	}
	return false
}
