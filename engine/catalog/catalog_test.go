package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSample_Valid(t *testing.T) {
	recs := Sample()
	if len(recs) != 10 {
		t.Fatalf("expected 10 records, got %d", len(recs))
	}
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			t.Fatalf("sample record %s: %v", r.ID, err)
		}
		if r.Code == "" {
			t.Fatalf("sample record %s has no code", r.ID)
		}
	}
}

func TestRecordText(t *testing.T) {
	r := Record{Title: "Chef", Description: "Cooks food.", Skills: []string{"Cooking", "Menu Planning"}, TextContent: "kitchen"}
	if got := r.Text(); got != "Chef Cooks food. Cooking Menu Planning kitchen" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRecordMetadata(t *testing.T) {
	r := Sample()[7]
	md := r.Metadata()
	if md["occupationTitle"] != "Electrician" {
		t.Fatalf("expected Electrician, got %v", md["occupationTitle"])
	}
	if md["code"] != "7411" {
		t.Fatalf("expected code 7411, got %v", md["code"])
	}
	skills, ok := md["skills"].([]any)
	if !ok || len(skills) != 4 {
		t.Fatalf("unexpected skills %v", md["skills"])
	}
}

func TestValidate(t *testing.T) {
	if err := (Record{Title: "x"}).Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if err := (Record{ID: "x"}).Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestParse_YAML(t *testing.T) {
	data := `
occupations:
  - id: occ-1
    occupationTitle: Welder
    code: "7212"
    skills: [Welding, Blueprint Reading]
  - id: occ-2
    occupationTitle: Baker
`
	recs, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 2 || recs[0].Code != "7212" || len(recs[0].Skills) != 2 {
		t.Fatalf("unexpected records %+v", recs)
	}
}

func TestParse_JSON(t *testing.T) {
	data := `{"occupations":[{"id":"a","occupationTitle":"Plumber","category":"Trades"}]}`
	recs, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if recs[0].Category != "Trades" {
		t.Fatalf("unexpected record %+v", recs[0])
	}
}

func TestParse_Duplicate(t *testing.T) {
	data := `{"occupations":[{"id":"a","occupationTitle":"A"},{"id":"a","occupationTitle":"B"}]}`
	if _, err := Parse([]byte(data)); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("occupations: [")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("occupations:\n  - id: x\n    occupationTitle: Tailor\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	recs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if recs[0].Title != "Tailor" {
		t.Fatalf("unexpected %+v", recs[0])
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
