package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDataset serializes the dataset into profile.json and per-form HTML
// files under the provided directory.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	profilePath := filepath.Join(dir, "profile.json")
	if err := writeJSON(profilePath, dataset.Profile); err != nil {
		return err
	}

	for _, form := range dataset.Forms {
		formPath := filepath.Join(dir, form.Name+".html")
		if err := os.WriteFile(formPath, []byte(form.HTML), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", formPath, err)
		}
	}

	return nil
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
