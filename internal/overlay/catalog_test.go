package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"commentary-ai/internal/types"
)

func writeAsset(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatalf("write asset %s: %v", name, err)
	}
	return path
}

func TestLookupCategoryAssets(t *testing.T) {
	dir := t.TempDir()
	natureLogo := writeAsset(t, dir, "nature_logo.png")
	natureFrame := writeAsset(t, dir, "nature_frame.png")
	writeAsset(t, dir, "unclassified_logo.png")

	catalog := NewCatalog(dir)

	asset, err := catalog.Lookup(types.CategoryNature)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if asset.LogoPath != natureLogo {
		t.Fatalf("logo = %q, want %q", asset.LogoPath, natureLogo)
	}
	if asset.FrameTemplate != natureFrame {
		t.Fatalf("frame = %q, want %q", asset.FrameTemplate, natureFrame)
	}
	if asset.Category != types.CategoryNature {
		t.Fatalf("category = %s, want %s", asset.Category, types.CategoryNature)
	}
}

func TestLookupFallsBackToDefaultKit(t *testing.T) {
	dir := t.TempDir()
	defaultLogo := writeAsset(t, dir, "unclassified_logo.png")

	catalog := NewCatalog(dir)

	asset, err := catalog.Lookup(types.CategoryFunny)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if asset.LogoPath != defaultLogo {
		t.Fatalf("logo = %q, want default %q", asset.LogoPath, defaultLogo)
	}
	if asset.FrameTemplate != "" {
		t.Fatalf("frame = %q, want empty", asset.FrameTemplate)
	}
	// Category is preserved even when assets fall back.
	if asset.Category != types.CategoryFunny {
		t.Fatalf("category = %s, want %s", asset.Category, types.CategoryFunny)
	}
}

func TestLookupFailsWithoutDefault(t *testing.T) {
	catalog := NewCatalog(t.TempDir())
	if _, err := catalog.Lookup(types.CategoryNews); err == nil {
		t.Fatal("Lookup() with no assets should fail")
	}
}
