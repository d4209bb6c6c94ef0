package snipmail

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Categories []struct {
		Name string `yaml:"name"`
	} `yaml:"categories"`
	Styles []struct {
		Name      string `yaml:"name"`
		Template  string `yaml:"template"`
		IconColor string `yaml:"icon_color"`
	} `yaml:"styles"`
	Snippets []struct {
		Title       string   `yaml:"title"`
		Description string   `yaml:"description"`
		Category    string   `yaml:"category"`
		Tags        []string `yaml:"tags"`
		HTML        string   `yaml:"html"`
	} `yaml:"snippets"`
}

// seedLibrary imports the embedded starter content into an empty library so
// a fresh install has something to compose with. A non-empty library is
// never touched.
func (a *App) seedLibrary() error {
	n, err := a.Store.CountSnippets()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	raw, err := EmbeddedAssets.ReadFile("embedded/seed.yaml")
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	for _, c := range seed.Categories {
		if err := a.Store.SaveCategory(Category{ID: Slugify(c.Name), Name: c.Name}); err != nil {
			return err
		}
	}
	for i, s := range seed.Styles {
		if err := a.Store.SaveTextStyle(TextStyle{
			ID:           uuid.NewString(),
			Name:         s.Name,
			HTMLTemplate: s.Template,
			IconColor:    s.IconColor,
			SortOrder:    i,
		}); err != nil {
			return err
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, s := range seed.Snippets {
		if err := a.Store.CreateSnippet(Snippet{
			ID:          uuid.NewString(),
			Title:       s.Title,
			Description: s.Description,
			HTML:        s.HTML,
			Category:    Slugify(s.Category),
			Tags:        s.Tags,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}
	}
	a.Echo.Logger.Infof("seeded library with %d snippets", len(seed.Snippets))
	return nil
}
