package types

// Standard table kinds held by every session.
const (
	TableAgentCapacities = "agent_capacities"
	TableItemCapacities  = "item_capacities"
	TablePreferences     = "preferences"
)

// StandardTableNames lists all standard table kinds for enumeration.
var StandardTableNames = []string{
	TableItemCapacities,
	TableAgentCapacities,
	TablePreferences,
}

// ValidTableName reports whether name is one of the standard table kinds.
func ValidTableName(name string) bool {
	for _, n := range StandardTableNames {
		if n == name {
			return true
		}
	}
	return false
}
