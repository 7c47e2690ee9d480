package collection

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/tdewolff/opentype"
	"golang.org/x/text/cases"
)

// DefaultBudget is the number of bytes of loaded font resources kept in memory when Options.Budget is zero.
var DefaultBudget int64 = 32 * 1024 * 1024

// ErrNotFound is returned when a family or subfamily is not in the collection.
var ErrNotFound = errors.New("font not found")

// fontExtensions are the file extensions AddDir considers.
var fontExtensions = map[string]bool{
	".ttf":   true,
	".otf":   true,
	".ttc":   true,
	".otc":   true,
	".woff":  true,
	".woff2": true,
	".eot":   true,
}

// Options configures a Collection.
type Options struct {
	Budget int64 // bytes, DefaultBudget if zero
}

// Collection indexes fonts by family and subfamily.
type Collection struct {
	families  map[string]*family
	resources map[string]Source
	cache     *lruCache
	fold      cases.Caser
}

type family struct {
	name  string
	faces map[FontSubfamily]face
}

type face struct {
	resource   string
	index      int
	monospaced bool
}

// New returns an empty collection.
func New(opts Options) *Collection {
	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Collection{
		families:  map[string]*family{},
		resources: map[string]Source{},
		cache:     newCache(budget),
		fold:      cases.Fold(),
	}
}

func (c *Collection) key(name string) string {
	return c.fold.String(strings.Join(strings.Fields(name), " "))
}

// AddFontResource indexes all fonts of a resource, which may be a TrueType or OpenType font or collection, or a WOFF, WOFF2 or EOT font. The first resource to provide a family and subfamily wins. The parsed fonts are not kept, they are loaded again from src when requested.
func (c *Collection) AddFontResource(id string, src Source) error {
	if _, ok := c.resources[id]; ok {
		return fmt.Errorf("font resource %s: already added", id)
	}

	b, err := readSFNT(src)
	if err != nil {
		return fmt.Errorf("font resource %s: %w", id, err)
	}
	fonts, err := opentype.ParseFonts(b)
	if err != nil {
		return fmt.Errorf("font resource %s: %w", id, err)
	}

	c.resources[id] = src
	for i, f := range fonts {
		name, sub := describe(f).resolve()
		if name == "" {
			tracer().Infof("font %d of resource %s has no family name", i, id)
			continue
		}

		key := c.key(name)
		fam, ok := c.families[key]
		if !ok {
			fam = &family{
				name:  name,
				faces: map[FontSubfamily]face{},
			}
			c.families[key] = fam
		}
		if prev, ok := fam.faces[sub]; ok {
			tracer().Debugf("font %d of resource %s duplicates %s %v of resource %s", i, id, fam.name, sub, prev.resource)
			continue
		}
		fam.faces[sub] = face{
			resource:   id,
			index:      i,
			monospaced: f.IsMonospaced(),
		}
		tracer().Debugf("collection stores font %d of resource %s as %s %v", i, id, fam.name, sub)
	}
	return nil
}

// AddDir indexes all font files below dir. Files that cannot be read or parsed are skipped. It returns the number of files added.
func (c *Collection) AddDir(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			tracer().Infof("skip %s: %v", path, err)
			return nil
		} else if d.IsDir() || !fontExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		if err := c.AddFontResource(path, FileSource(path)); err != nil {
			tracer().Infof("skip %v", err)
			return nil
		}
		n++
		return nil
	})
	return n, err
}

// AddSystemFonts indexes the font files returned by list, such as SystemFontFiles. Files that cannot be read or parsed are skipped. It returns the number of files added.
func (c *Collection) AddSystemFonts(list func() []string) int {
	n := 0
	for _, path := range list() {
		if err := c.AddFontResource(path, FileSource(path)); err != nil {
			tracer().Infof("skip %v", err)
			continue
		}
		n++
	}
	return n
}

// SystemFontFiles lists the font files in the font directories of the operating system.
func SystemFontFiles() []string {
	return findfont.List()
}

// Families returns the family names in alphabetical order.
func (c *Collection) Families() []string {
	names := make([]string, 0, len(c.families))
	for _, fam := range c.families {
		names = append(names, fam.name)
	}
	sort.Strings(names)
	return names
}

// Subfamilies returns the subfamilies of a family ordered by style, width and weight, or nil if the family does not exist.
func (c *Collection) Subfamilies(family string) []FontSubfamily {
	fam, ok := c.families[c.key(family)]
	if !ok {
		return nil
	}
	subs := make([]FontSubfamily, 0, len(fam.faces))
	for sub := range fam.faces {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].less(subs[j]) })
	return subs
}

func (c *Collection) face(family string, sub FontSubfamily) (face, error) {
	fam, ok := c.families[c.key(family)]
	if !ok {
		return face{}, fmt.Errorf("%w: family %s", ErrNotFound, family)
	}
	fc, ok := fam.faces[sub]
	if !ok {
		return face{}, fmt.Errorf("%w: %s %v", ErrNotFound, fam.name, sub)
	}
	return fc, nil
}

// IsMonospaced returns true if the face exists and is monospaced.
func (c *Collection) IsMonospaced(family string, sub FontSubfamily) bool {
	fc, err := c.face(family, sub)
	return err == nil && fc.monospaced
}

// Lookup returns the requested subfamily if it exists, or else the nearest subfamily of the family by Distance. It returns false if the family does not exist.
func (c *Collection) Lookup(family string, requested FontSubfamily) (FontSubfamily, bool) {
	fam, ok := c.families[c.key(family)]
	if !ok || len(fam.faces) == 0 {
		return FontSubfamily{}, false
	} else if _, ok := fam.faces[requested]; ok {
		return requested, true
	}

	best, bestDistance := FontSubfamily{}, -1
	for _, sub := range c.Subfamilies(family) {
		if d := requested.Distance(sub); bestDistance < 0 || d < bestDistance {
			best, bestDistance = sub, d
		}
	}
	return best, true
}

// Font returns the font of the face, loading its resource if needed. Loading may evict the least recently used resources.
func (c *Collection) Font(family string, sub FontSubfamily) (*opentype.Font, error) {
	fc, err := c.face(family, sub)
	if err != nil {
		return nil, err
	}
	fonts, err := c.load(fc.resource)
	if err != nil {
		return nil, err
	} else if len(fonts) <= fc.index {
		return nil, fmt.Errorf("font resource %s: font %d: %w", fc.resource, fc.index, ErrNotFound)
	}
	return fonts[fc.index], nil
}

func (c *Collection) load(id string) ([]*opentype.Font, error) {
	if fonts, ok := c.cache.Get(id); ok {
		return fonts, nil
	}

	src, ok := c.resources[id]
	if !ok {
		return nil, fmt.Errorf("font resource %s: %w", id, ErrNotFound)
	}
	b, err := readSFNT(src)
	if err != nil {
		tracer().Errorf("font resource %s: %v", id, err)
		return nil, fmt.Errorf("font resource %s: %w", id, err)
	}
	fonts, err := opentype.ParseFonts(b)
	if err != nil {
		return nil, fmt.Errorf("font resource %s: %w", id, err)
	}
	tracer().Debugf("load font resource %s of %d bytes", id, len(b))
	c.cache.Put(id, fonts, int64(len(b)))
	return fonts, nil
}

// Loaded returns true if the parsed fonts of the resource are in memory.
func (c *Collection) Loaded(id string) bool {
	return c.cache.Has(id)
}

// Allocated returns the number of bytes of loaded resources.
func (c *Collection) Allocated() int64 {
	return c.cache.allocated
}

// Budget returns the current byte budget of loaded resources.
func (c *Collection) Budget() int64 {
	return c.cache.budget
}
