package types

// Standard table names for Store.GetTable.
const (
	TableCustomers = "tb_customers"
	TableCalls     = "tb_calls"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableCustomers,
	TableCalls,
}

// IsStandardTable reports whether name is one of StandardTableNames.
func IsStandardTable(name string) bool {
	for _, n := range StandardTableNames {
		if n == name {
			return true
		}
	}
	return false
}
