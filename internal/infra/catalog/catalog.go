package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"telegram-subscription-shop/internal/domain"
	"telegram-subscription-shop/internal/domain/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is an immutable id -> offer mapping built once at startup.
type Catalog struct {
	currency string
	offers   []model.SubscriptionOffer
	byID     map[string]int
}

type document struct {
	Currency string                    `yaml:"currency"`
	Offers   []model.SubscriptionOffer `yaml:"offers"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog document.
func Parse(b []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc.Currency, doc.Offers)
}

// New validates offers and builds the lookup index. Offer ids must be unique.
func New(currency string, offers []model.SubscriptionOffer) (*Catalog, error) {
	if currency == "" {
		currency = "RUB"
	}
	c := &Catalog{
		currency: currency,
		offers:   make([]model.SubscriptionOffer, 0, len(offers)),
		byID:     make(map[string]int, len(offers)),
	}
	for _, o := range offers {
		v, err := model.NewSubscriptionOffer(o.ID, o.Price, o.Description, o.Period, o.Category)
		if err != nil {
			return nil, fmt.Errorf("offer %q: %w", o.ID, err)
		}
		if _, dup := c.byID[v.ID]; dup {
			return nil, fmt.Errorf("offer %q: duplicate id: %w", v.ID, domain.ErrInvalidArgument)
		}
		c.byID[v.ID] = len(c.offers)
		c.offers = append(c.offers, *v)
	}
	return c, nil
}

// Lookup returns the offer for id or ErrUnknownOffer.
func (c *Catalog) Lookup(id string) (model.SubscriptionOffer, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.SubscriptionOffer{}, fmt.Errorf("%w: %q", domain.ErrUnknownOffer, id)
	}
	return c.offers[i], nil
}

// Label is for human-facing text only: it falls back to the raw id.
func (c *Catalog) Label(id string) string {
	if o, err := c.Lookup(id); err == nil {
		return o.Label()
	}
	return id
}

// List returns all offers in declaration order.
func (c *Catalog) List() []model.SubscriptionOffer {
	out := make([]model.SubscriptionOffer, len(c.offers))
	copy(out, c.offers)
	return out
}

// ByCategory returns the offers of one category in declaration order.
func (c *Catalog) ByCategory(cat model.Category) []model.SubscriptionOffer {
	var out []model.SubscriptionOffer
	for _, o := range c.offers {
		if o.Category == cat {
			out = append(out, o)
		}
	}
	return out
}

func (c *Catalog) Currency() string { return c.currency }
