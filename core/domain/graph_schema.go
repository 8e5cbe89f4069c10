package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaSnapshot describes the labels, relationship types, property keys,
// constraints and indexes of one database. Constraints and indexes are
// best-effort and empty when the server cannot list them.
type SchemaSnapshot struct {
	Database          string   `json:"database"`
	Labels            []string `json:"labels"`
	RelationshipTypes []string `json:"relationship_types"`
	PropertyKeys      []string `json:"property_keys"`
	Constraints       []Record `json:"constraints"`
	Indexes           []Record `json:"indexes"`
}

// Dedupe returns the distinct non-empty strings of in, sorted.
func Dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Text renders the snapshot for humans.
func (s *SchemaSnapshot) Text() string {
	var b strings.Builder
	b.WriteString("Neo4j Database Schema\n")
	b.WriteString("=====================\n")
	fmt.Fprintf(&b, "Database: %s\n", s.Database)

	section := func(title string, items []string) {
		sorted := append([]string(nil), items...)
		sort.Strings(sorted)
		fmt.Fprintf(&b, "%s (%d):\n", title, len(sorted))
		for _, item := range sorted {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}
	section("Node Labels", s.Labels)
	section("Relationship Types", s.RelationshipTypes)
	section("Property Keys", s.PropertyKeys)

	fmt.Fprintf(&b, "Constraints: %d\n", len(s.Constraints))
	fmt.Fprintf(&b, "Indexes: %d", len(s.Indexes))
	return b.String()
}
