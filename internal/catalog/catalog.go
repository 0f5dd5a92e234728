// Package catalog содержит статический каталог пакетов услуг.
package catalog

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/houseinmeta/backend/internal/model"
)

// ErrPackageNotFound возвращается при запросе неизвестного идентификатора пакета.
var ErrPackageNotFound = errors.New("package not found")

// Catalog — неизменяемый список доступных пакетов, загружаемый при старте.
type Catalog struct {
	packages []model.Package
	byID     map[string]int
}

// New создаёт каталог с фиксированным набором пакетов.
func New() *Catalog {
	packages := []model.Package{
		{
			ID:          "basic",
			Name:        "3D Quick",
			Icon:        "🏠",
			Description: "Get your floor plan converted to 3D in no time",
			Price:       decimal.NewFromFloat(39.99),
			Period:      "one-time",
			Features: []string{
				"High Quality Axonometric 3D View image",
				"Single floor conversion",
				"Two Interior 3D Rendered images",
				"5-day delivery",
			},
		},
		{
			ID:          "professional",
			Name:        "3D Pro",
			Icon:        "🏢",
			Description: "Get a detailed understanding of your space with 3D Pro",
			Price:       decimal.NewFromFloat(69.99),
			Period:      "one-time",
			Features: []string{
				"In addition to 3D Quick features:",
				"High-quality Interior Rendered images",
				"High quality 360° images for immersive experience",
				"Two Revisions based on client feedback",
				"Advanced navigation & interactivity",
			},
			Featured: true,
		},
		{
			ID:          "premium",
			Name:        "3D Premium",
			Icon:        "👑",
			Description: "Walk through your space like never before with 3D Premium",
			Price:       decimal.NewFromFloat(99.99),
			Period:      "one-time",
			Features: []string{
				"In addition to 3D Pro features:",
				"A fully interactive 3D model with advanced navigation",
				"3D files for use in VR/AR applications",
				"Priority support and faster delivery",
			},
		},
	}

	byID := make(map[string]int, len(packages))
	for i, p := range packages {
		byID[p.ID] = i
	}

	return &Catalog{
		packages: packages,
		byID:     byID,
	}
}

// ByID возвращает пакет по идентификатору.
func (c *Catalog) ByID(id string) (model.Package, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Package{}, ErrPackageNotFound
	}
	return c.packages[i], nil
}

// List возвращает все пакеты в порядке отображения.
func (c *Catalog) List() []model.Package {
	out := make([]model.Package, len(c.packages))
	copy(out, c.packages)
	return out
}
