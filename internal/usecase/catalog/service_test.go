package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	dombatch "github.com/kailas-cloud/glycomeal/internal/domain/batch"
	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
)

// --- Mocks ---

type mockWriter struct {
	puts   map[string][]domrecipe.Ingredient
	failOn string
}

func (m *mockWriter) Put(_ context.Context, rec domrecipe.Recipe, ings []domrecipe.Ingredient) error {
	if rec.Name() == m.failOn {
		return errors.New("connection lost")
	}
	if m.puts == nil {
		m.puts = map[string][]domrecipe.Ingredient{}
	}
	m.puts[rec.Name()] = ings
	return nil
}

type mockRebuilder struct {
	calls int
	err   error
}

func (m *mockRebuilder) Rebuild(_ context.Context) error {
	m.calls++
	return m.err
}

const testCatalog = `
ingredients:
  - name: white rice
    carb: 28
    protein: 2.7
    fat: 0.3
    fiber: 0.4
    types: [Staple]
  - name: broccoli
    carb: 7
    protein: 2.8
    fat: 0.4
    fiber: 2.6
    preference_score: 0.8
    types: [Vegetable]
  - name: sludge
    carb: 90
    protein: 20
    fat: 5
recipes:
  - name: steamed rice
    category: Staple
    ingredients:
      - {name: white rice, weight: 200}
  - name: steamed broccoli
    category: Vegetable-dominant
    preference_score: 0.7
    ingredients:
      - {name: broccoli, weight: 150}
  - name: mystery
    category: Staple
    ingredients:
      - {name: unobtainium, weight: 10}
  - name: overfull
    category: Staple
    ingredients:
      - {name: sludge, weight: 10}
`

func mustParse(t *testing.T, src string) Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// --- Tests ---

func TestImport_PerItemResults(t *testing.T) {
	w := &mockWriter{}
	rb := &mockRebuilder{}
	s := New(w, rb)

	results, err := s.Import(context.Background(), mustParse(t, testCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	want := []dombatch.ItemStatus{dombatch.StatusOK, dombatch.StatusOK, dombatch.StatusError, dombatch.StatusError}
	for i, r := range results {
		if r.Status() != want[i] {
			t.Errorf("results[%d] (%s) = %s, want %s: %v", i, r.Name(), r.Status(), want[i], r.Err())
		}
	}
	if !errors.Is(results[2].Err(), domain.ErrValidation) || !errors.Is(results[3].Err(), domain.ErrValidation) {
		t.Errorf("expected validation errors, got %v / %v", results[2].Err(), results[3].Err())
	}

	rice := w.puts["steamed rice"]
	if len(rice) != 1 || rice[0].Weight != 200 || rice[0].PreferenceScore != defaultPreferenceScore {
		t.Errorf("unexpected rice ingredients: %+v", rice)
	}
	if !rice[0].HasType(domrecipe.TypeStaple) {
		t.Error("expected Staple tag on white rice")
	}
	if rb.calls != 1 {
		t.Errorf("rebuild calls = %d, want 1", rb.calls)
	}
}

func TestImport_WriteErrorIsPerItem(t *testing.T) {
	w := &mockWriter{failOn: "steamed rice"}
	s := New(w, &mockRebuilder{})

	results, err := s.Import(context.Background(), mustParse(t, testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status() != dombatch.StatusError {
		t.Error("expected write failure for steamed rice")
	}
	if results[1].Status() != dombatch.StatusOK {
		t.Errorf("other recipes must still import: %v", results[1].Err())
	}
}

func TestImport_BatchTooLarge(t *testing.T) {
	w := &mockWriter{}
	rb := &mockRebuilder{}
	s := New(w, rb).WithMaxBatchSize(1)

	results, err := s.Import(context.Background(), mustParse(t, testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	if dombatch.Succeeded(results) != 0 {
		t.Error("oversized batch must be rejected as a whole")
	}
	if len(w.puts) != 0 || rb.calls != 0 {
		t.Error("nothing may be written for an oversized batch")
	}
}

func TestImport_NothingWrittenSkipsRebuild(t *testing.T) {
	rb := &mockRebuilder{}
	s := New(&mockWriter{}, rb)

	doc := Document{Recipes: []RecipeSpec{{Name: "bad", Category: "Dessert"}}}
	results, err := s.Import(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status() != dombatch.StatusError {
		t.Error("unknown category must fail")
	}
	if rb.calls != 0 {
		t.Error("rebuild must be skipped when nothing was written")
	}
}

func TestImport_RebuildError(t *testing.T) {
	s := New(&mockWriter{}, &mockRebuilder{err: errors.New("store down")})

	if _, err := s.Import(context.Background(), mustParse(t, testCatalog)); err == nil {
		t.Fatal("expected rebuild error")
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("recipes:\n  - name: x\n    colour: red\n"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParse_UnknownIngredientType(t *testing.T) {
	src := `
ingredients:
  - {name: rock, carb: 1, types: [Mineral]}
recipes:
  - name: soup
    category: Staple
    ingredients: [{name: rock, weight: 5}]
`
	results, err := New(&mockWriter{}, &mockRebuilder{}).Import(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(results[0].Err(), domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", results[0].Err())
	}
}
