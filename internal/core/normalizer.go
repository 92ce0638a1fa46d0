package core

import (
	"iter"
	"strings"

	"github.com/JonMunkholm/crudimport/internal/schema"
)

// NamelessPolicy decides what happens to a record with no usable name.
type NamelessPolicy int

const (
	// SkipNameless drops the record and counts it as skipped.
	// It is the ingestion default.
	SkipNameless NamelessPolicy = iota

	// RejectNameless fails the whole upload on the first nameless record.
	RejectNameless
)

// Normalizer maps heterogeneous source columns onto NormalizedRecord.
// The zero value uses schema.UserNameAliases, schema.DefaultUserRole and
// SkipNameless.
type Normalizer struct {
	Aliases     []string
	DefaultRole string
	OnNameless  NamelessPolicy
}

func (n Normalizer) aliases() []string {
	if len(n.Aliases) == 0 {
		return schema.UserNameAliases
	}
	return n.Aliases
}

func (n Normalizer) defaultRole() string {
	if n.DefaultRole == "" {
		return schema.DefaultUserRole
	}
	return n.DefaultRole
}

// Normalize resolves the name from the first alias with a non-blank value
// and the role from the role column, falling back to the default role.
// It reports false when no alias holds a usable name.
func (n Normalizer) Normalize(rec RawRecord) (NormalizedRecord, bool) {
	var name string
	for _, alias := range n.aliases() {
		if v, ok := rec.Get(alias); ok {
			if v = strings.TrimSpace(v); v != "" {
				name = v
				break
			}
		}
	}
	if name == "" {
		return NormalizedRecord{}, false
	}

	role, _ := rec.Get(schema.UserRoleColumn)
	role = strings.TrimSpace(role)
	if role == "" {
		role = n.defaultRole()
	}

	return NormalizedRecord{Name: name, Role: role}, true
}

// NormalizeAll drains a parser sequence, preserving input order.
// It returns the surviving records and how many were skipped.
// A parser error stops the drain and is returned as is.
func (n Normalizer) NormalizeAll(seq iter.Seq2[RawRecord, error]) ([]NormalizedRecord, int, error) {
	var out []NormalizedRecord
	skipped := 0

	for rec, err := range seq {
		if err != nil {
			return nil, skipped, err
		}
		norm, ok := n.Normalize(rec)
		if !ok {
			if n.OnNameless == RejectNameless {
				return nil, skipped, &NamelessRecordError{Line: rec.Line()}
			}
			skipped++
			continue
		}
		out = append(out, norm)
	}

	return out, skipped, nil
}
