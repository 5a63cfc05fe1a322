package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/glycomeal/internal/db"
	"github.com/kailas-cloud/glycomeal/internal/domain"
	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
)

// --- ListRecipes ---

func TestListRecipes_SortedByName(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "glycomeal:recipe:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		return []string{"glycomeal:recipe:rice", "glycomeal:recipe:gone", "glycomeal:recipe:beef"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		return []map[string]string{
			{"name": "rice", "category": "Staple", "preference_score": "0.6"},
			{},
			{"name": "beef", "category": "Protein-dominant", "preference_score": "0.9"},
		}, nil
	}

	recipes, err := repo.ListRecipes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}
	if recipes[0].Name() != "beef" || recipes[1].Name() != "rice" {
		t.Errorf("unexpected order: %s, %s", recipes[0].Name(), recipes[1].Name())
	}
	if recipes[1].Category() != domrecipe.CategoryStaple || recipes[1].PreferenceScore() != 0.6 {
		t.Errorf("unexpected rice: %+v", recipes[1])
	}
}

func TestListRecipes_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)

	recipes, err := repo.ListRecipes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recipes == nil || len(recipes) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", recipes)
	}
}

func TestListRecipes_ScanError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("connection lost")
	}

	if _, err := repo.ListRecipes(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestListRecipes_BadScore(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"glycomeal:recipe:rice"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{{"name": "rice", "preference_score": "abc"}}, nil
	}

	if _, err := repo.ListRecipes(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

// --- Get ---

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- ListIngredients ---

func TestListIngredients_JoinsWeights(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "glycomeal:contains:stir-fry" {
			t.Errorf("unexpected key: %s", key)
		}
		return map[string]string{"tofu": "150", "broccoli": "100", "ghost": "10"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		want := []string{"glycomeal:ingredient:broccoli", "glycomeal:ingredient:ghost", "glycomeal:ingredient:tofu"}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
			}
		}
		return []map[string]string{
			{"carb": "7", "protein": "2.8", "fat": "0.4", "fiber": "2.6", "preference_score": "0.5", "types": "Vegetable"},
			{},
			{"carb": "1.9", "protein": "8", "fat": "4.8", "fiber": "0.3", "preference_score": "0.7", "types": "Protein-rich,Vegetable"},
		}, nil
	}

	ings, err := repo.ListIngredients(context.Background(), "stir-fry")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ings) != 2 {
		t.Fatalf("expected 2 ingredients, got %d", len(ings))
	}
	if ings[0].Name != "broccoli" || ings[0].Weight != 100 || ings[0].Carb != 7 {
		t.Errorf("unexpected broccoli: %+v", ings[0])
	}
	if ings[1].Name != "tofu" || ings[1].Weight != 150 || !ings[1].HasType(domrecipe.TypeProteinRich) {
		t.Errorf("unexpected tofu: %+v", ings[1])
	}
}

func TestListIngredients_NoLinks(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		t.Fatal("ingredients must not be fetched without links")
		return nil, nil
	}

	ings, err := repo.ListIngredients(context.Background(), "plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ings) != 0 {
		t.Errorf("expected no ingredients, got %d", len(ings))
	}
}

// --- CurrentScore ---

func TestCurrentScore(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetFn = func(_ context.Context, key, field string) (string, error) {
		if key != "glycomeal:recipe:rice" || field != "preference_score" {
			t.Errorf("unexpected HGET %s %s", key, field)
		}
		return "0.75", nil
	}

	score, err := repo.CurrentScore(context.Background(), "rice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.75 {
		t.Errorf("score = %v, want 0.75", score)
	}
}

func TestCurrentScore_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.CurrentScore(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- WriteScores ---

func TestWriteScores_SingleTransaction(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got []db.HashWrite
	ms.writeFn = func(_ context.Context, items []db.HashWrite) error {
		got = items
		return nil
	}

	err := repo.WriteScores(context.Background(), "stir-fry", 4.25, map[string]float64{"tofu": 5, "broccoli": 4.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0].Key != "glycomeal:recipe:stir-fry" || got[0].Fields["preference_score"] != "4.25" {
		t.Errorf("unexpected recipe item: %+v", got[0])
	}
	if got[1].Key != "glycomeal:ingredient:broccoli" || got[1].Fields["preference_score"] != "4.5" {
		t.Errorf("unexpected ingredient item: %+v", got[1])
	}
}

func TestWriteScores_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.writeFn = func(_ context.Context, _ []db.HashWrite) error {
		return db.ErrTxAborted
	}

	err := repo.WriteScores(context.Background(), "rice", 1, nil)
	if !errors.Is(err, db.ErrTxAborted) {
		t.Fatalf("expected wrapped ErrTxAborted, got %v", err)
	}
}

// --- Put ---

func TestPut_ReplacesLinks(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got []db.HashWrite
	ms.writeFn = func(_ context.Context, items []db.HashWrite) error {
		got = items
		return nil
	}

	rec, err := domrecipe.New("rice", domrecipe.CategoryStaple, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	ings := []domrecipe.Ingredient{{Name: "white rice", Carb: 28, Protein: 2.7, Fat: 0.3, Weight: 200, Types: []domrecipe.IngredientType{domrecipe.TypeStaple}}}

	if err := repo.Put(context.Background(), rec, ings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected recipe + ingredient + contains, got %d items", len(got))
	}
	if got[1].Fields["types"] != "Staple" {
		t.Errorf("unexpected types field: %q", got[1].Fields["types"])
	}
	for _, w := range got[:2] {
		if _, ok := w.Fields["preference_score"]; ok {
			t.Errorf("%s: preference_score must not be overwritten", w.Key)
		}
		if w.Defaults["preference_score"] != "0.6" && w.Key == "glycomeal:recipe:rice" {
			t.Errorf("%s: defaults = %v", w.Key, w.Defaults)
		}
		if w.Defaults["preference_score"] == "" {
			t.Errorf("%s: missing default preference_score", w.Key)
		}
	}
	if got[2].Key != "glycomeal:contains:rice" || !got[2].Replace || got[2].Fields["white rice"] != "200" {
		t.Errorf("unexpected contains item: %+v", got[2])
	}
}

func TestPut_ReimportKeepsLearnedScores(t *testing.T) {
	ctx := context.Background()
	repo := New(newMemStore())

	rec, err := domrecipe.New("steamed-rice", domrecipe.CategoryStaple, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	ings := []domrecipe.Ingredient{{Name: "rice", Carb: 28, PreferenceScore: 0.6, Weight: 150, Types: []domrecipe.IngredientType{domrecipe.TypeStaple}}}

	if err := repo.Put(ctx, rec, ings); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if err := repo.WriteScores(ctx, "steamed-rice", 8.825, map[string]float64{"rice": 8.825}); err != nil {
		t.Fatalf("write scores: %v", err)
	}
	ings[0].Carb = 30
	if err := repo.Put(ctx, rec, ings); err != nil {
		t.Fatalf("second import: %v", err)
	}

	score, err := repo.CurrentScore(ctx, "steamed-rice")
	if err != nil {
		t.Fatal(err)
	}
	if score != 8.825 {
		t.Errorf("recipe score = %v after re-import, want 8.825", score)
	}
	got, err := repo.ListIngredients(ctx, "steamed-rice")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].PreferenceScore != 8.825 || got[0].Carb != 30 {
		t.Errorf("ingredients after re-import = %+v, want score 8.825 and carb 30", got)
	}
}

func TestPut_NewRecordTakesCatalogScore(t *testing.T) {
	ctx := context.Background()
	repo := New(newMemStore())

	rec, err := domrecipe.New("tofu-bowl", domrecipe.CategoryProtein, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Put(ctx, rec, nil); err != nil {
		t.Fatal(err)
	}
	if score, _ := repo.CurrentScore(ctx, "tofu-bowl"); score != 0.9 {
		t.Errorf("score = %v, want 0.9", score)
	}
}
