package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/webp"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// IsImage reports whether the file name has a supported image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Photos is a single photo or every photo of a directory.
type Photos []string

func OpenPhotos(path string) (Photos, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return Photos{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files Photos
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsImage(entry.Name()) {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

func (p Photos) Len() int { return len(p) }

// Render decodes the photo; dpi only matters for vector pages.
func (p Photos) Render(index, _ int) (image.Image, error) {
	f, err := os.Open(p[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p[index], err)
	}
	return img, nil
}

func (p Photos) Name(index int) string { return p[index] }

func (Photos) Close() error { return nil }
