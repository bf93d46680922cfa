package model

// Grant binds one employee to one manager with five independent capability
// flags. Business logic treats the first grant found for an employee as
// authoritative.
type Grant struct {
	ID               int64 `json:"id"`
	ManagerID        int64 `json:"manager_id"`
	EmployeeID       int64 `json:"employee_id"`
	CanViewInventory bool  `json:"can_view_inventory"`
	CanEditInventory bool  `json:"can_edit_inventory"`
	CanSeeFinances   bool  `json:"can_see_finances"`
	CanAddItems      bool  `json:"can_add_items"`
	CanRemoveItems   bool  `json:"can_remove_items"`
}

// Capabilities grantable to an employee. The values double as the JSON field
// names accepted by the grant-update endpoint.
const (
	CapViewInventory = "can_view_inventory"
	CapEditInventory = "can_edit_inventory"
	CapSeeFinances   = "can_see_finances"
	CapAddItems      = "can_add_items"
	CapRemoveItems   = "can_remove_items"
)

// Allows reports whether the grant carries the given capability.
func (g *Grant) Allows(capability string) bool {
	if g == nil {
		return false
	}
	switch capability {
	case CapViewInventory:
		return g.CanViewInventory
	case CapEditInventory:
		return g.CanEditInventory
	case CapSeeFinances:
		return g.CanSeeFinances
	case CapAddItems:
		return g.CanAddItems
	case CapRemoveItems:
		return g.CanRemoveItems
	}
	return false
}
