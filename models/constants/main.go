package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout the metadata service
	and it's associated subsystems.
*/
type FilterOperator string
type TableKind string
