package search

import (
	"encoding/json"
	"testing"

	"candig/metadata/models/dtos"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/stretchr/testify/assert"
)

func set(ids ...string) PatientSet {
	s := PatientSet{}
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func parseLogic(t *testing.T, raw string) *dtos.LogicNode {
	node := &dtos.LogicNode{}
	assert.NoError(t, json.Unmarshal([]byte(raw), node))
	return node
}

func TestCombine(t *testing.T) {
	universe := set("p1", "p2", "p3", "p4", "p5")
	environment := map[string]PatientSet{
		"A": set("p1", "p2", "p3"),
		"B": set("p2", "p4"),
		"C": set("p2", "p5"),
	}

	t.Run("leaf id", func(t *testing.T) {
		result, err := Combine(parseLogic(t, `{"id": "A"}`), environment, universe)
		assert.NoError(t, err)
		assert.Equal(t, set("p1", "p2", "p3"), result)
	})

	t.Run("negated leaf complements against the universe", func(t *testing.T) {
		result, err := Combine(parseLogic(t, `{"id": "B", "negate": true}`), environment, universe)
		assert.NoError(t, err)
		assert.Equal(t, set("p1", "p3", "p5"), result)
	})

	t.Run("and intersects", func(t *testing.T) {
		result, err := Combine(parseLogic(t, `{"and": [{"id": "A"}, {"id": "B"}]}`), environment, universe)
		assert.NoError(t, err)
		assert.Equal(t, set("p2"), result)
	})

	t.Run("or unions", func(t *testing.T) {
		result, err := Combine(parseLogic(t, `{"or": [{"id": "B"}, {"id": "C"}]}`), environment, universe)
		assert.NoError(t, err)
		assert.Equal(t, set("p2", "p4", "p5"), result)
	})

	t.Run("A and (not B or C)", func(t *testing.T) {
		node := parseLogic(t, `{"and": [{"id": "A"}, {"or": [{"id": "B", "negate": true}, {"id": "C"}]}]}`)
		result, err := Combine(node, environment, universe)
		assert.NoError(t, err)
		// not B = {p1,p3,p5} ; or C = {p1,p2,p3,p5} ; and A = {p1,p2,p3}
		assert.Equal(t, set("p1", "p2", "p3"), result)
	})

	t.Run("empty and is the universe", func(t *testing.T) {
		result, err := Combine(parseLogic(t, `{"and": []}`), environment, universe)
		assert.NoError(t, err)
		assert.Equal(t, universe, result)
	})

	t.Run("empty or is the empty set", func(t *testing.T) {
		result, err := Combine(parseLogic(t, `{"or": []}`), environment, universe)
		assert.NoError(t, err)
		assert.Len(t, result, 0)
	})

	t.Run("unknown component id", func(t *testing.T) {
		_, err := Combine(parseLogic(t, `{"id": "Z"}`), environment, universe)
		assert.Error(t, err)
		serverError := err.(*serverErrors.ServerError)
		assert.Equal(t, "InvalidLogicException", serverError.Name)
		assert.Contains(t, serverError.Message, "'Z'")
	})

	t.Run("result sets are copies, not aliases", func(t *testing.T) {
		result, err := Combine(parseLogic(t, `{"id": "A"}`), environment, universe)
		assert.NoError(t, err)

		delete(result, "p1")
		assert.Contains(t, environment["A"], "p1")
	})
}
