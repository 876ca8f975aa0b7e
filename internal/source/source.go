// Package source opens the ordered listing media: photos and PDF brochures,
// where every brochure page counts as one still.
package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Source is an indexed set of stills behind one path.
type Source interface {
	Len() int
	Render(index, dpi int) (image.Image, error)
	Name(index int) string
	Close() error
}

// Brochure exposes the pages of a PDF.
type Brochure struct {
	doc   *fitz.Document
	path  string
	pages int
}

func OpenBrochure(path string) (*Brochure, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &Brochure{doc: doc, path: path, pages: doc.NumPage()}, nil
}

func (b *Brochure) Len() int { return b.pages }

// Render opens its own document handle: fitz documents are not safe for concurrent use.
func (b *Brochure) Render(index, dpi int) (image.Image, error) {
	if index < 0 || index >= b.pages {
		return nil, fmt.Errorf("%s: page %d out of range", b.path, index+1)
	}
	doc, err := fitz.New(b.path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.ImageDPI(index, float64(dpi))
}

func (b *Brochure) Name(index int) string {
	return fmt.Sprintf("%s#%d", b.path, index+1)
}

func (b *Brochure) Close() error {
	return b.doc.Close()
}

// Open picks the source type for path.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return OpenBrochure(path)
	}
	return OpenPhotos(path)
}

// Item is one still in the ordered media list.
type Item struct {
	src   Source
	index int
}

func (i Item) Name() string {
	return i.src.Name(i.index)
}

func (i Item) Render(dpi int) (image.Image, error) {
	return i.src.Render(i.index, dpi)
}

// Library flattens several sources into one ordered list of stills.
type Library struct {
	sources []Source
	items   []Item
}

// Collect opens every path in order. Directories contribute their images sorted by name.
func Collect(paths []string) (*Library, error) {
	lib := &Library{}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			lib.Close()
			return nil, err
		}
		src, err := Open(p)
		if err != nil {
			lib.Close()
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		lib.sources = append(lib.sources, src)
		for i := 0; i < src.Len(); i++ {
			lib.items = append(lib.items, Item{src: src, index: i})
		}
	}
	return lib, nil
}

func (l *Library) Items() []Item {
	return l.items
}

func (l *Library) Len() int {
	return len(l.items)
}

func (l *Library) Close() error {
	var errs []error
	for _, s := range l.sources {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
