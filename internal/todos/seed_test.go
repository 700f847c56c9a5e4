package todos

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestSeed(t *testing.T) {
	repo := NewInMemoryRepo()
	path := writeSeed(t, `[
		{"title":"Buy Milk","month":"1","year":"2017","description":"Milk for baby"},
		{"title":"Buy Veggies"}
	]`)

	n, err := Seed(repo, path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 seeded, got %d", n)
	}
	list, _ := repo.List()
	if !sameTitles(list, "Buy Milk", "Buy Veggies") || list[0].Year != "2017" {
		t.Fatalf("unexpected todos: %+v", list)
	}
}

func TestSeed_Errors(t *testing.T) {
	repo := NewInMemoryRepo()

	if _, err := Seed(repo, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("expected error for missing file")
	}
	if _, err := Seed(repo, writeSeed(t, `{"title":"not an array"}`)); err == nil {
		t.Errorf("expected error for non-array seed")
	}
	if _, err := Seed(repo, writeSeed(t, `[{"title":""}]`)); err == nil {
		t.Errorf("expected error for blank title")
	}
}
