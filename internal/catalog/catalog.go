// Package catalog holds the static enumerations consumed by the intake form:
// districts, the blocks belonging to each district, and participant categories.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"regdesk/internal/common/errors"
)

//go:embed default.json
var defaultDocument []byte

// Document is the on-disk shape of a catalogue.
type Document struct {
	Version    string     `json:"version"`
	Districts  []District `json:"districts"`
	Categories []string   `json:"categories"`
}

type District struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Blocks []string `json:"blocks"`
}

// Catalog answers membership questions over a validated Document.
type Catalog struct {
	version     string
	districts   []District
	blocks      map[string]map[string]struct{}
	categories  []string
	categorySet map[string]struct{}
}

// Default returns the built-in catalogue.
func Default() *Catalog {
	c, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("built-in catalogue is invalid: %v", err))
	}
	return c
}

// Load reads a catalogue file. An empty path returns Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewCatalogInvalidError(fmt.Sprintf("read %s: %v", path, err))
	}
	return Parse(data)
}

// Parse validates raw JSON against the catalogue schema and builds a Catalog.
func Parse(data []byte) (*Catalog, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.NewCatalogInvalidError(err.Error())
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, errors.NewCatalogInvalidError(strings.Join(msgs, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewCatalogInvalidError(err.Error())
	}
	return New(doc)
}

// New builds a Catalog from an in-memory document. District IDs must be unique.
func New(doc Document) (*Catalog, error) {
	c := &Catalog{
		version:     doc.Version,
		districts:   make([]District, 0, len(doc.Districts)),
		blocks:      make(map[string]map[string]struct{}, len(doc.Districts)),
		categories:  append([]string(nil), doc.Categories...),
		categorySet: make(map[string]struct{}, len(doc.Categories)),
	}
	for _, d := range doc.Districts {
		if _, dup := c.blocks[d.ID]; dup {
			return nil, errors.NewCatalogInvalidError(fmt.Sprintf("duplicate district %q", d.ID))
		}
		set := make(map[string]struct{}, len(d.Blocks))
		for _, b := range d.Blocks {
			set[b] = struct{}{}
		}
		c.blocks[d.ID] = set
		c.districts = append(c.districts, District{
			ID:     d.ID,
			Name:   d.Name,
			Blocks: append([]string(nil), d.Blocks...),
		})
	}
	for _, cat := range doc.Categories {
		c.categorySet[cat] = struct{}{}
	}
	sort.SliceStable(c.districts, func(i, j int) bool { return c.districts[i].Name < c.districts[j].Name })
	return c, nil
}

func (c *Catalog) Version() string { return c.version }

// Districts returns the districts sorted by display name.
func (c *Catalog) Districts() []District {
	out := make([]District, len(c.districts))
	copy(out, c.districts)
	return out
}

// Blocks returns the blocks of a district in catalogue order, or nil for an unknown district.
func (c *Catalog) Blocks(districtID string) []string {
	for _, d := range c.districts {
		if d.ID == districtID {
			return append([]string(nil), d.Blocks...)
		}
	}
	return nil
}

func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

func (c *Catalog) HasDistrict(id string) bool {
	_, ok := c.blocks[id]
	return ok
}

// HasBlock reports whether block belongs to district.
func (c *Catalog) HasBlock(districtID, block string) bool {
	set, ok := c.blocks[districtID]
	if !ok {
		return false
	}
	_, ok = set[block]
	return ok
}

func (c *Catalog) HasCategory(category string) bool {
	_, ok := c.categorySet[category]
	return ok
}
