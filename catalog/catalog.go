package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Cocktail is one drink record. Every field except Name is optional;
// formatting degrades gracefully when fields are missing.
type Cocktail struct {
	Name        string
	Price       string
	BatchBuild  []string
	SingleBuild []string
	Ingredients []string
	Glass       string
	Garnish     []string
	Character   string
}

// Spirit is one bottle record: a name, an optional price, and an open
// set of labeled attributes (type, region, tasting notes, fun facts...).
type Spirit struct {
	Name       string
	Price      string
	Attributes map[string]string
}

// Catalog holds both record sets. Slice order is authoritative: the
// matcher's tie-break walks cocktails and spirits in insertion order.
type Catalog struct {
	cocktails []Cocktail
	spirits   []Spirit

	cocktailIdx map[string]int
	spiritIdx   map[string]int
}

type rawCocktail struct {
	Name        string      `json:"name"`
	Price       string      `json:"price"`
	BatchBuild  []string    `json:"batchBuild"`
	SingleBuild []string    `json:"singleBuild"`
	Recipe      []string    `json:"recipe"`
	Ingredients []string    `json:"ingredients"`
	Glass       string      `json:"glass"`
	Garnish     interface{} `json:"garnish"`
	Character   string      `json:"character"`
	Tasting     string      `json:"tastingNotes"`
}

type rawFile struct {
	Cocktails []rawCocktail            `json:"cocktails"`
	Spirits   []map[string]interface{} `json:"spirits"`
}

// New builds a catalog from already-parsed records. Records without a
// name are skipped; a duplicate name keeps the first occurrence.
func New(cocktails []Cocktail, spirits []Spirit) *Catalog {
	c := &Catalog{
		cocktailIdx: make(map[string]int),
		spiritIdx:   make(map[string]int),
	}
	for _, ck := range cocktails {
		if ck.Name == "" {
			continue
		}
		if _, dup := c.cocktailIdx[ck.Name]; dup {
			continue
		}
		c.cocktailIdx[ck.Name] = len(c.cocktails)
		c.cocktails = append(c.cocktails, ck)
	}
	for _, sp := range spirits {
		if sp.Name == "" {
			continue
		}
		if _, dup := c.spiritIdx[sp.Name]; dup {
			continue
		}
		c.spiritIdx[sp.Name] = len(c.spirits)
		c.spirits = append(c.spirits, sp)
	}
	return c
}

// Empty returns an empty catalog. Used when the source is missing or
// malformed: the engine then answers everything through the fallback path.
func Empty() *Catalog {
	return New(nil, nil)
}

// Parse decodes the catalog file format: a JSON object with "cocktails"
// and "spirits" arrays. Array order is preserved.
func Parse(data []byte) (*Catalog, error) {
	var raw rawFile
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	cocktails := make([]Cocktail, 0, len(raw.Cocktails))
	for _, rc := range raw.Cocktails {
		cocktails = append(cocktails, rc.toCocktail())
	}

	spirits := make([]Spirit, 0, len(raw.Spirits))
	for _, rs := range raw.Spirits {
		sp, ok := toSpirit(rs)
		if !ok {
			continue
		}
		spirits = append(spirits, sp)
	}

	return New(cocktails, spirits), nil
}

// Load reads and parses the catalog file. Any failure yields an empty
// catalog and the error; callers are expected to keep running.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(), fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Empty(), err
	}
	return c, nil
}

func (rc rawCocktail) toCocktail() Cocktail {
	ck := Cocktail{
		Name:        strings.TrimSpace(rc.Name),
		Price:       strings.TrimSpace(rc.Price),
		BatchBuild:  rc.BatchBuild,
		SingleBuild: rc.SingleBuild,
		Ingredients: rc.Ingredients,
		Glass:       strings.TrimSpace(rc.Glass),
		Character:   strings.TrimSpace(rc.Character),
	}
	// The single build may live under a dedicated field or a recipe field.
	if len(ck.SingleBuild) == 0 {
		ck.SingleBuild = rc.Recipe
	}
	if ck.Character == "" {
		ck.Character = strings.TrimSpace(rc.Tasting)
	}
	// Garnish may be a single string or a list.
	switch g := rc.Garnish.(type) {
	case string:
		if s := strings.TrimSpace(g); s != "" {
			ck.Garnish = []string{s}
		}
	case []interface{}:
		for _, item := range g {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				ck.Garnish = append(ck.Garnish, strings.TrimSpace(s))
			}
		}
	}
	return ck
}

func toSpirit(rs map[string]interface{}) (Spirit, bool) {
	sp := Spirit{Attributes: make(map[string]string)}
	for key, value := range rs {
		text := stringify(value)
		switch strings.ToLower(key) {
		case "name":
			sp.Name = strings.TrimSpace(text)
		case "price":
			sp.Price = strings.TrimSpace(text)
		default:
			if text != "" {
				sp.Attributes[key] = text
			}
		}
	}
	if sp.Name == "" {
		return Spirit{}, false
	}
	return sp, true
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	case bool:
		return fmt.Sprintf("%t", v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// CocktailNames returns cocktail names in insertion order.
func (c *Catalog) CocktailNames() []string {
	names := make([]string, len(c.cocktails))
	for i, ck := range c.cocktails {
		names[i] = ck.Name
	}
	return names
}

// SpiritNames returns spirit names in insertion order.
func (c *Catalog) SpiritNames() []string {
	names := make([]string, len(c.spirits))
	for i, sp := range c.spirits {
		names[i] = sp.Name
	}
	return names
}

// Cocktail looks up a cocktail by its exact name.
func (c *Catalog) Cocktail(name string) (Cocktail, bool) {
	i, ok := c.cocktailIdx[name]
	if !ok {
		return Cocktail{}, false
	}
	return c.cocktails[i], true
}

// Spirit looks up a spirit by its exact name.
func (c *Catalog) Spirit(name string) (Spirit, bool) {
	i, ok := c.spiritIdx[name]
	if !ok {
		return Spirit{}, false
	}
	return c.spirits[i], true
}

// IsEmpty reports whether the catalog holds no records at all.
func (c *Catalog) IsEmpty() bool {
	return len(c.cocktails) == 0 && len(c.spirits) == 0
}

// SortedAttributeKeys returns a spirit's leftover attribute keys in a
// stable order, for callers that need deterministic iteration.
func SortedAttributeKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
