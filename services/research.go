package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"ClinicLink360/util"
)

// ResearchService is the escape hatch for ad-hoc read-only traversal
// queries issued by an operator. Anything that could write is rejected
// statically, before the query ever reaches the store.
type ResearchService struct {
	graph GraphStore
}

func NewResearchService(graph GraphStore) *ResearchService {
	return &ResearchService{graph: graph}
}

var writeKeywords = map[string]bool{
	"create":  true,
	"merge":   true,
	"delete":  true,
	"detach":  true,
	"set":     true,
	"remove":  true,
	"drop":    true,
	"call":    true,
	"load":    true,
	"foreach": true,
}

/*
* A query is accepted only if it starts with MATCH or RETURN and no
* write verb occurs as a standalone word anywhere in the text.
* Identifiers that merely contain a verb (offset, dataset, caller)
* survive because tokens are compared whole, never as substrings.
 */
func validateReadOnly(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return fmt.Errorf("empty query: %w", util.ErrForbiddenOperation)
	}
	lowered := strings.ToLower(q)
	if !strings.HasPrefix(lowered, "match") && !strings.HasPrefix(lowered, "return") {
		return fmt.Errorf("query must start with MATCH or RETURN: %w", util.ErrForbiddenOperation)
	}
	tokens := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, token := range tokens {
		if writeKeywords[token] {
			return fmt.Errorf("write verb %q not allowed: %w", token, util.ErrForbiddenOperation)
		}
	}
	return nil
}

func (s *ResearchService) RunReadOnly(ctx context.Context, query string) ([]map[string]any, error) {
	if err := validateReadOnly(query); err != nil {
		return nil, err
	}
	return s.graph.ExecRead(ctx, query, nil)
}
