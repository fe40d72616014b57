package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/artwall/storefront/internal/domain"
)

//go:embed data/catalog.json
var embeddedCatalog []byte

// CatalogData is the on-disk catalog layout.
type CatalogData struct {
	Artists  []domain.Artist  `json:"artists"`
	Artworks []domain.Artwork `json:"artworks"`
}

// JSONCatalogRepository reads the catalog from a JSON document, either a
// file on disk or the copy embedded in the binary.
type JSONCatalogRepository struct {
	path string
}

// NewEmbeddedCatalogRepository serves the catalog compiled into the binary.
func NewEmbeddedCatalogRepository() *JSONCatalogRepository {
	return &JSONCatalogRepository{}
}

// NewFileCatalogRepository reads the catalog from path on every Load.
func NewFileCatalogRepository(path string) *JSONCatalogRepository {
	return &JSONCatalogRepository{path: path}
}

// Load returns the catalog contents.
func (r *JSONCatalogRepository) Load(ctx context.Context) (*CatalogData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := embeddedCatalog
	if r.path != "" {
		b, err := os.ReadFile(r.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		raw = b
	}
	var data CatalogData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &data, nil
}

// LoadCatalog loads and indexes the catalog.
func LoadCatalog(ctx context.Context, repo CatalogRepository) (*domain.Catalog, error) {
	data, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	c, err := domain.NewCatalog(data.Artworks, data.Artists)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}
