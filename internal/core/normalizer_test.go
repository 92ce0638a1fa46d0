package core

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func rec(fields ...string) RawRecord {
	fs := make([]Field, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		fs = append(fs, Field{Name: fields[i], Value: fields[i+1]})
	}
	return NewRawRecord(1, fs...)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		record RawRecord
		want   NormalizedRecord
		wantOK bool
	}{
		{"username with role", rec("username", "alice", "role", "admin"), NormalizedRecord{"alice", "admin"}, true},
		{"missing role defaults", rec("username", "bob"), NormalizedRecord{"bob", "member"}, true},
		{"empty role defaults", rec("username", "bob", "role", ""), NormalizedRecord{"bob", "member"}, true},
		{"blank role defaults", rec("username", "bob", "role", "   "), NormalizedRecord{"bob", "member"}, true},
		{"role trimmed", rec("username", "bob", "role", " admin "), NormalizedRecord{"bob", "admin"}, true},
		{"name trimmed", rec("name", "  carol  "), NormalizedRecord{"carol", "member"}, true},
		{"user alias", rec("user", "dave"), NormalizedRecord{"dave", "member"}, true},
		{"nombre alias", rec("nombre", "Ana"), NormalizedRecord{"Ana", "member"}, true},
		{"empty username and nombre skipped", rec("username", "", "nombre", ""), NormalizedRecord{}, false},
		{"whitespace only skipped", rec("username", "   "), NormalizedRecord{}, false},
		{"no alias column skipped", rec("email", "x@example.com"), NormalizedRecord{}, false},
		{"empty record skipped", rec(), NormalizedRecord{}, false},
	}

	var n Normalizer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Normalize(tt.record)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Every ordered pair of aliases: the higher-priority alias wins, and a blank
// higher-priority value falls through to the lower one.
func TestNormalize_AliasPriority(t *testing.T) {
	aliases := []string{"username", "user", "name", "nombre"}

	for i, hi := range aliases {
		for _, lo := range aliases[i+1:] {
			t.Run(hi+" over "+lo, func(t *testing.T) {
				got, _ := Normalizer{}.Normalize(rec(lo, "low", hi, "high"))
				if got.Name != "high" {
					t.Errorf("name = %q, want high", got.Name)
				}
			})
			t.Run(hi+" blank falls to "+lo, func(t *testing.T) {
				got, _ := Normalizer{}.Normalize(rec(hi, " ", lo, "low"))
				if got.Name != "low" {
					t.Errorf("name = %q, want low", got.Name)
				}
			})
		}
	}
}

func TestNormalizer_CustomAliasesAndRole(t *testing.T) {
	n := Normalizer{Aliases: []string{"login"}, DefaultRole: "guest"}

	got, ok := n.Normalize(rec("username", "ignored", "login", "eve"))
	if !ok || got != (NormalizedRecord{"eve", "guest"}) {
		t.Errorf("got %+v (ok %v), want {eve guest}", got, ok)
	}
}

func TestNormalizeAll_SpecExample(t *testing.T) {
	seq, err := Parse(strings.NewReader("id,username,role\n1,alice,admin\n2,,member\n3,bob,\n"), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}

	got, skipped, err := Normalizer{}.NormalizeAll(seq)
	if err != nil {
		t.Fatalf("NormalizeAll() error = %v", err)
	}

	want := []NormalizedRecord{{"alice", "admin"}, {"bob", "member"}}
	if !slices.Equal(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestNormalizeAll_RejectNameless(t *testing.T) {
	seq, _ := Parse(strings.NewReader("username\nalice\n\n,\n"), FormatCSV)

	_, _, err := Normalizer{OnNameless: RejectNameless}.NormalizeAll(seq)

	var nr *NamelessRecordError
	if !errors.As(err, &nr) {
		t.Fatalf("error = %v, want *NamelessRecordError", err)
	}
	if nr.Line != 4 {
		t.Errorf("Line = %d, want 4", nr.Line)
	}
}

func TestNormalizeAll_PropagatesParseError(t *testing.T) {
	seq, _ := Parse(strings.NewReader(strings.Repeat("x", maxLineSize+1)), FormatPlainText)

	if _, _, err := (Normalizer{}).NormalizeAll(seq); !errors.Is(err, ErrCorruptInput) {
		t.Errorf("error = %v, want ErrCorruptInput", err)
	}
}
