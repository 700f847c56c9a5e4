package todos

import (
	"encoding/json"
	"fmt"
	"os"
)

// Seed reads a JSON array of Data from path and loads it through repo.Init.
// It returns the number of todos loaded.
func Seed(repo Repository, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var set []Data
	if err := json.Unmarshal(b, &set); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := repo.Init(set); err != nil {
		return 0, fmt.Errorf("init from seed: %w", err)
	}
	return len(set), nil
}
