package search

import (
	"strconv"
	"strings"

	"candig/metadata/models/constants"
	"candig/metadata/models/constants/operators"
	"candig/metadata/models/dtos"
	"candig/metadata/models/records"
	"candig/metadata/models/schemas"

	serverErrors "candig/metadata/models/dtos/errors"
)

// EvaluateFilters conjoins every predicate over the rows of a single
// table. Comparison is string typed : equality is byte-exact, ordering
// is lexicographic unless the table schema declares the field numeric.
// A predicate over a field absent from a row evaluates to false.
func EvaluateFilters(
	rows []*records.Record,
	filters []dtos.Filter,
	table *schemas.Table) ([]*records.Record, error) {

	// validate the whole predicate list before touching any row
	for _, filter := range filters {
		if operators.CastToFilterOperator(filter.Operator) == operators.Undefined {
			return nil, serverErrors.NewInvalidFilter(filter.Operator)
		}
		if !table.HasField(filter.Field) {
			return nil, serverErrors.NewInvalidField(filter.Field)
		}
	}

	matched := make([]*records.Record, 0, len(rows))

rowLoop:
	for _, row := range rows {
		for _, filter := range filters {
			value, present := row.Attrs[filter.Field]
			if !present {
				continue rowLoop
			}
			operator := operators.CastToFilterOperator(filter.Operator)
			if !compare(operator, value, filter.Value, table.IsNumeric(filter.Field)) {
				continue rowLoop
			}
		}
		matched = append(matched, row)
	}

	return matched, nil
}

func compare(operator constants.FilterOperator, left string, right string, numeric bool) bool {
	switch operator {
	case operators.OP_EQ:
		return left == right
	case operators.OP_NE:
		return left != right
	}

	ordering, comparable := order(left, right, numeric)
	if !comparable {
		return false
	}

	switch operator {
	case operators.OP_LT:
		return ordering < 0
	case operators.OP_LE:
		return ordering <= 0
	case operators.OP_GT:
		return ordering > 0
	case operators.OP_GE:
		return ordering >= 0
	default:
		return false
	}
}

func order(left string, right string, numeric bool) (int, bool) {
	if numeric {
		leftNumber, leftErr := strconv.ParseFloat(left, 64)
		rightNumber, rightErr := strconv.ParseFloat(right, 64)
		if leftErr != nil || rightErr != nil {
			return 0, false
		}
		switch {
		case leftNumber < rightNumber:
			return -1, true
		case leftNumber > rightNumber:
			return 1, true
		default:
			return 0, true
		}
	}
	return strings.Compare(left, right), true
}
