package overlay

import (
	"fmt"
	"os"
	"path/filepath"

	"commentary-ai/internal/types"
)

// Catalog resolves the per-category overlay kit from a static assets
// directory. Naming convention: <category>_logo.png and
// <category>_frame.png. Read-only reference data; the pipeline never
// writes here.
type Catalog struct {
	assetsDir string
}

func NewCatalog(assetsDir string) *Catalog {
	return &Catalog{assetsDir: assetsDir}
}

// Lookup returns the overlay assets for a category, falling back to the
// Unclassified kit when a category-specific file is missing. The frame
// template is optional; the logo is not.
func (c *Catalog) Lookup(category types.Category) (types.OverlayAsset, error) {
	asset := types.OverlayAsset{Category: category}

	logo := c.assetPath(category, "logo")
	if !fileExists(logo) {
		logo = c.assetPath(types.CategoryUnclassified, "logo")
		if !fileExists(logo) {
			return types.OverlayAsset{}, fmt.Errorf("no overlay logo for category %s and no default in %s", category, c.assetsDir)
		}
	}
	asset.LogoPath = logo

	frame := c.assetPath(category, "frame")
	if !fileExists(frame) {
		frame = c.assetPath(types.CategoryUnclassified, "frame")
		if !fileExists(frame) {
			frame = ""
		}
	}
	asset.FrameTemplate = frame

	return asset, nil
}

func (c *Catalog) assetPath(category types.Category, kind string) string {
	return filepath.Join(c.assetsDir, fmt.Sprintf("%s_%s.png", category, kind))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
