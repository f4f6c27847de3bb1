package operators

import (
	"candig/metadata/models/constants"
)

const (
	Undefined constants.FilterOperator = ""

	OP_EQ constants.FilterOperator = "=="
	OP_NE constants.FilterOperator = "!="
	OP_LT constants.FilterOperator = "<"
	OP_LE constants.FilterOperator = "<="
	OP_GT constants.FilterOperator = ">"
	OP_GE constants.FilterOperator = ">="
)

func CastToFilterOperator(text string) constants.FilterOperator {
	switch text {
	case "==":
		return OP_EQ
	case "!=":
		return OP_NE
	case "<":
		return OP_LT
	case "<=":
		return OP_LE
	case ">":
		return OP_GT
	case ">=":
		return OP_GE
	default:
		return Undefined
	}
}
