package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"cleanuri/pkg/errs"
	"cleanuri/pkg/pricing"
)

var ErrProductNotFound = fmt.Errorf("%w: product not found", errs.ErrNotFound)

// ProductDescription identifies a product on a page. Every field is optional.
type ProductDescription struct {
	ID    string
	Name  string
	Image *url.URL
}

// NewProductDescription returns false if id, name and image are all empty.
func NewProductDescription(id, name string, image *url.URL) (*ProductDescription, bool) {
	if id == "" && name == "" && image == nil {
		return nil, false
	}
	return &ProductDescription{ID: id, Name: name, Image: image}, true
}

type productDescriptionJSON struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

func (d ProductDescription) MarshalJSON() ([]byte, error) {
	out := productDescriptionJSON{ID: d.ID, Name: d.Name}
	if d.Image != nil {
		out.Image = d.Image.String()
	}
	return json.Marshal(out)
}

func (d *ProductDescription) UnmarshalJSON(data []byte) error {
	var in productDescriptionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*d = ProductDescription{ID: in.ID, Name: in.Name}
	if in.Image != "" {
		image, err := url.Parse(in.Image)
		if err != nil {
			return errs.InvalidArgument("product image %q: %v", in.Image, err)
		}
		d.Image = image
	}
	return nil
}

// Product is the result of running a site's extractor against one URI.
type Product struct {
	Site         string              `json:"site"`
	URI          string              `json:"uri"`
	CanonicalURI string              `json:"canonical_uri"`
	Title        string              `json:"title,omitempty"`
	Description  *ProductDescription `json:"description,omitempty"`
	Pricing      *pricing.Pricing    `json:"pricing,omitempty"`
	PricingSane  bool                `json:"pricing_sane"`
	ExtractedAt  time.Time           `json:"extracted_at"`
}

// Empty reports whether no facet could be extracted.
func (p *Product) Empty() bool {
	return p.Title == "" && p.Description == nil && p.Pricing == nil
}
