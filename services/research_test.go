package services

import (
	"context"
	"testing"

	"ClinicLink360/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReadOnly(t *testing.T) {
	cases := []struct {
		name  string
		query string
		ok    bool
	}{
		{"simple match", "MATCH (n:Patient) RETURN n.id", true},
		{"lowercase match", "match (d:Doctor) return d", true},
		{"return literal", "RETURN 1", true},
		{"leading whitespace", "   MATCH (n) RETURN count(n)", true},
		{"identifier containing verb", "MATCH (n) RETURN n.dataset, n.offset", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"starts with create", "CREATE (n:Patient {id: 99})", false},
		{"match then delete", "MATCH (n) DETACH DELETE n", false},
		{"match then set", "MATCH (n) SET n.name = 'x'", false},
		{"match then merge", "MATCH (n) MERGE (m:Patient)", false},
		{"case-shifted verb", "MATCH (n) DeLeTe n", false},
		{"procedure call", "MATCH (n) CALL apoc.export.all('x') RETURN n", false},
		{"load csv", "MATCH (n) LOAD CSV FROM 'file:///x' AS row RETURN row", false},
		{"verb after punctuation", "MATCH (n) RETURN n;DELETE n", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateReadOnly(tc.query)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, util.ErrForbiddenOperation)
			}
		})
	}
}

func TestRunReadOnlyRejectsBeforeStore(t *testing.T) {
	svc := NewResearchService(nil)

	_, err := svc.RunReadOnly(context.Background(), "MATCH (n) DELETE n")
	require.ErrorIs(t, err, util.ErrForbiddenOperation)
}

func TestRunReadOnlyReturnsRows(t *testing.T) {
	graph := newFakeGraph()
	alloc := NewIDAllocator(graph)
	clinical := NewClinicalService(graph, alloc)

	_, err := clinical.CreateClinic(context.Background(), "Sunshine Health Center", "12 Harbor St")
	require.NoError(t, err)
	_, err = clinical.CreateDepartment(context.Background(), 1, "Cardiology")
	require.NoError(t, err)

	svc := NewResearchService(graph)
	rows, err := svc.RunReadOnly(context.Background(), departmentsCypher)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cardiology", rows[0]["name"])
}
