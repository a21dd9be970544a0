package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/devicebulk/internal/csvio"
)

// RequiredColumns are the headers a relation source must provide (matched case-insensitively).
var RequiredColumns = []string{
	"ForeignKeyName",
	"ParentTable",
	"ParentColumn",
	"ReferencedTable",
	"ReferencedColumn",
}

// ErrAmbiguousRelation is returned under the strict tie-break policy when more
// than one relation links the same child table to the same referenced table.
var ErrAmbiguousRelation = errors.New("ambiguous relation")

// SchemaError reports a relation source that is missing or malformed.
// It is fatal at startup.
type SchemaError struct {
	Source string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("relation source %s: %v", e.Source, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Relation is one foreign-key declaration.
// Parent is the dependent table holding the FK column; Referenced is the table pointed at.
type Relation struct {
	ForeignKeyName   string `json:"foreignKeyName"`
	ParentTable      string `json:"parentTable"`
	ParentColumn     string `json:"parentColumn"`
	ReferencedTable  string `json:"referencedTable"`
	ReferencedColumn string `json:"referencedColumn"`
}

// Parent returns the normalized dependent table name.
func (r Relation) Parent() string { return NormalizeTableName(r.ParentTable) }

// Referenced returns the normalized referenced table name.
func (r Relation) Referenced() string { return NormalizeTableName(r.ReferencedTable) }

// TieBreak selects a relation when several link the same pair of tables.
type TieBreak string

const (
	// TieBreakFirst uses the first relation in source order.
	TieBreakFirst TieBreak = "first"
	// TieBreakStrict refuses to choose and returns ErrAmbiguousRelation.
	TieBreakStrict TieBreak = "strict"
)

// ParseTieBreak validates a policy name. Empty means TieBreakFirst.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(strings.ToLower(strings.TrimSpace(s))) {
	case "", TieBreakFirst:
		return TieBreakFirst, nil
	case TieBreakStrict:
		return TieBreakStrict, nil
	default:
		return "", fmt.Errorf("unknown tie-break policy %q (want first or strict)", s)
	}
}

// Catalog indexes relations by referenced table.
type Catalog struct {
	relations []Relation
	children  map[string][]Relation // TableKey(referenced) -> relations in source order

	policy    TieBreak
	canonical map[string]string // TableKey(child) -> foreign key name
}

// NewCatalog builds a catalog from relations in source order.
func NewCatalog(relations []Relation) *Catalog {
	c := &Catalog{
		relations: relations,
		children:  make(map[string][]Relation),
		policy:    TieBreakFirst,
		canonical: make(map[string]string),
	}
	for _, r := range relations {
		key := TableKey(r.ReferencedTable)
		c.children[key] = append(c.children[key], r)
	}
	return c
}

// LoadCatalog parses a relation source. Header names are matched
// case-insensitively; extra columns are ignored.
func LoadCatalog(source string, r io.Reader) (*Catalog, error) {
	records, _, err := csvio.ReadRecords(r)
	if err != nil {
		return nil, &SchemaError{Source: source, Err: err}
	}
	if len(records) == 0 {
		return nil, &SchemaError{Source: source, Err: errors.New("empty file")}
	}

	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	cols := make([]int, len(RequiredColumns))
	for i, name := range RequiredColumns {
		pos, ok := idx[strings.ToLower(name)]
		if !ok {
			return nil, &SchemaError{Source: source, Err: fmt.Errorf("missing column: %s", name)}
		}
		cols[i] = pos
	}

	cell := func(rec []string, pos int) string {
		if pos < len(rec) {
			return strings.TrimSpace(rec[pos])
		}
		return ""
	}

	relations := make([]Relation, 0, len(records)-1)
	for _, rec := range records[1:] {
		relations = append(relations, Relation{
			ForeignKeyName:   cell(rec, cols[0]),
			ParentTable:      cell(rec, cols[1]),
			ParentColumn:     cell(rec, cols[2]),
			ReferencedTable:  cell(rec, cols[3]),
			ReferencedColumn: cell(rec, cols[4]),
		})
	}

	return NewCatalog(relations), nil
}

// LoadCatalogFile opens and parses a relation source file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SchemaError{Source: path, Err: err}
	}
	defer f.Close()

	return LoadCatalog(path, f)
}

// SetTieBreak configures how Link resolves ambiguity. canonical maps a child
// table name to the foreign key name that wins for it, regardless of policy.
func (c *Catalog) SetTieBreak(policy TieBreak, canonical map[string]string) {
	c.policy = policy
	c.canonical = make(map[string]string, len(canonical))
	for child, fk := range canonical {
		c.canonical[TableKey(child)] = fk
	}
}

// Relations returns all relations in source order.
func (c *Catalog) Relations() []Relation {
	out := make([]Relation, len(c.relations))
	copy(out, c.relations)
	return out
}

// ChildrenOf returns the relations whose referenced table is referenced, in source order.
func (c *Catalog) ChildrenOf(referenced string) []Relation {
	rels := c.children[TableKey(referenced)]
	out := make([]Relation, len(rels))
	copy(out, rels)
	return out
}

// ChildTables returns the distinct normalized child table names of referenced,
// in order of first appearance.
func (c *Catalog) ChildTables(referenced string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.children[TableKey(referenced)] {
		key := TableKey(r.ParentTable)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r.Parent())
	}
	return out
}

// Link returns the relation tying child to referenced. ok is false when none exists.
//
// A canonical designation for child wins. Otherwise the first relation in source
// order is used, unless the policy is strict and several candidates exist.
func (c *Catalog) Link(child, referenced string) (rel Relation, ok bool, err error) {
	var candidates []Relation
	for _, r := range c.children[TableKey(referenced)] {
		if SameTable(r.ParentTable, child) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return Relation{}, false, nil
	}

	if fk, designated := c.canonical[TableKey(child)]; designated {
		for _, r := range candidates {
			if strings.EqualFold(r.ForeignKeyName, fk) {
				return r, true, nil
			}
		}
		return Relation{}, false, fmt.Errorf("canonical relation %q for %s not found in catalog", fk, NormalizeTableName(child))
	}

	if len(candidates) > 1 && c.policy == TieBreakStrict {
		names := make([]string, len(candidates))
		for i, r := range candidates {
			names[i] = r.ForeignKeyName
		}
		return Relation{}, false, fmt.Errorf("%w: %s -> %s via %s",
			ErrAmbiguousRelation, NormalizeTableName(child), NormalizeTableName(referenced), strings.Join(names, ", "))
	}

	return candidates[0], true, nil
}
