package search

import (
	"fmt"

	"candig/metadata/models/dtos"

	serverErrors "candig/metadata/models/dtos/errors"
)

type PatientSet map[string]struct{}

// Combine evaluates a boolean logic tree over the component
// environment. The evaluator is strict : every child set is fully
// materialized before the parent combines them. Conventions over
// the dataset's patient universe U :
//
//	leaf {id: X}               -> env[X]
//	leaf {id: X, negate: true} -> U \ env[X]
//	and []                     -> U
//	or  []                     -> empty set
func Combine(
	node *dtos.LogicNode,
	environment map[string]PatientSet,
	universe PatientSet) (PatientSet, error) {

	switch node.Kind {
	case dtos.LOGIC_KIND_ID:
		patients, ok := environment[node.Id]
		if !ok {
			return nil, serverErrors.NewInvalidLogic(
				fmt.Sprintf("given id '%s' does not match a component", node.Id))
		}
		if node.Negate {
			return difference(universe, patients), nil
		}
		return clone(patients), nil

	case dtos.LOGIC_KIND_AND:
		result := clone(universe)
		for i := range node.Children {
			childSet, err := Combine(&node.Children[i], environment, universe)
			if err != nil {
				return nil, err
			}
			result = intersection(result, childSet)
		}
		return result, nil

	case dtos.LOGIC_KIND_OR:
		result := PatientSet{}
		for i := range node.Children {
			childSet, err := Combine(&node.Children[i], environment, universe)
			if err != nil {
				return nil, err
			}
			for patientId := range childSet {
				result[patientId] = struct{}{}
			}
		}
		return result, nil

	default:
		return nil, serverErrors.NewInvalidLogic("invalid key used in logic node")
	}
}

func clone(set PatientSet) PatientSet {
	cloned := make(PatientSet, len(set))
	for patientId := range set {
		cloned[patientId] = struct{}{}
	}
	return cloned
}

func intersection(a PatientSet, b PatientSet) PatientSet {
	if len(b) < len(a) {
		a, b = b, a
	}
	result := PatientSet{}
	for patientId := range a {
		if _, ok := b[patientId]; ok {
			result[patientId] = struct{}{}
		}
	}
	return result
}

func difference(universe PatientSet, set PatientSet) PatientSet {
	result := PatientSet{}
	for patientId := range universe {
		if _, ok := set[patientId]; !ok {
			result[patientId] = struct{}{}
		}
	}
	return result
}
