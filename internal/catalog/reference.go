package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var embeddedReference []byte

// Reference holds the fixed domains the generator samples from
type Reference struct {
	Makes        []MakeModels     `yaml:"makes"`
	BodyTypes    []string         `yaml:"body_types"`
	Colors       []string         `yaml:"colors"`
	FuelTypes    []string         `yaml:"fuel_types"`
	Conditions   []string         `yaml:"conditions"`
	DoorCounts   []int            `yaml:"door_counts"`
	Features     []string         `yaml:"features"`
	ImageURLs    []string         `yaml:"image_urls"`
	Dealers      DealerReference  `yaml:"dealers"`
	Descriptions DescriptionWords `yaml:"descriptions"`
	Transactions SaleReference    `yaml:"transactions"`
}

// MakeModels maps a manufacturer to the models it sells
type MakeModels struct {
	Make   string   `yaml:"make"`
	Models []string `yaml:"models"`
}

// DealerReference holds the per-index dealer fields
type DealerReference struct {
	NamePrefixes []string `yaml:"name_prefixes"`
	NameSuffix   string   `yaml:"name_suffix"`
	Streets      []string `yaml:"streets"`
	Cities       []string `yaml:"cities"`
	Description  string   `yaml:"description"`
	Logo         string   `yaml:"logo"`
}

// DescriptionWords are the phrases used to build a car description
type DescriptionWords struct {
	ConditionWords []string `yaml:"condition_words"`
	EngineWords    []string `yaml:"engine_words"`
	InteriorWords  []string `yaml:"interior_words"`
	Audiences      []string `yaml:"audiences"`
}

// SaleReference holds the transaction domains
type SaleReference struct {
	BuyerNames     []string `yaml:"buyer_names"`
	PaymentMethods []string `yaml:"payment_methods"`
	Statuses       []string `yaml:"statuses"`
}

var defaultReference = sync.OnceValue(func() *Reference {
	ref, err := ParseReference(embeddedReference)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog reference is invalid: %v", err))
	}
	return ref
})

// DefaultReference returns the built-in reference data
func DefaultReference() *Reference {
	return defaultReference()
}

// LoadReference loads reference data from a YAML file
func LoadReference(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ref, err := ParseReference(data)
	if err != nil {
		return nil, err
	}

	slog.Info("catalog reference loaded", "file", path,
		"makes", len(ref.Makes), "features", len(ref.Features))
	return ref, nil
}

// ParseReference parses and validates YAML reference data
func ParseReference(data []byte) (*Reference, error) {
	var ref Reference
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ref.Validate(); err != nil {
		return nil, err
	}

	return &ref, nil
}

// Validate checks that every domain the generator samples from is usable
func (r *Reference) Validate() error {
	if len(r.Makes) == 0 {
		return fmt.Errorf("%w: at least one make is required", ErrInvalidArgument)
	}
	for _, m := range r.Makes {
		if m.Make == "" {
			return fmt.Errorf("%w: make name is required", ErrInvalidArgument)
		}
		if len(m.Models) == 0 {
			return fmt.Errorf("%w: make %q has no models", ErrInvalidArgument, m.Make)
		}
	}

	if len(r.Features) < MaxFeatures {
		return fmt.Errorf("%w: need at least %d features, got %d", ErrInvalidArgument, MaxFeatures, len(r.Features))
	}

	seen := make(map[string]struct{}, len(r.Features))
	for _, f := range r.Features {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidArgument, f)
		}
		seen[f] = struct{}{}
	}

	for _, d := range []struct {
		name string
		size int
		min  int
	}{
		{"body_types", len(r.BodyTypes), 1},
		{"colors", len(r.Colors), 1},
		{"fuel_types", len(r.FuelTypes), 1},
		{"conditions", len(r.Conditions), 1},
		{"door_counts", len(r.DoorCounts), 1},
		{"image_urls", len(r.ImageURLs), 1},
		{"dealers.name_prefixes", len(r.Dealers.NamePrefixes), DealerCount},
		{"dealers.streets", len(r.Dealers.Streets), DealerCount},
		{"dealers.cities", len(r.Dealers.Cities), DealerCount},
		{"descriptions.condition_words", len(r.Descriptions.ConditionWords), 1},
		{"descriptions.engine_words", len(r.Descriptions.EngineWords), 1},
		{"descriptions.interior_words", len(r.Descriptions.InteriorWords), 1},
		{"descriptions.audiences", len(r.Descriptions.Audiences), 1},
		{"transactions.buyer_names", len(r.Transactions.BuyerNames), 1},
		{"transactions.payment_methods", len(r.Transactions.PaymentMethods), 1},
		{"transactions.statuses", len(r.Transactions.Statuses), 1},
	} {
		if d.size < d.min {
			return fmt.Errorf("%w: %s needs at least %d entries, got %d", ErrInvalidArgument, d.name, d.min, d.size)
		}
	}

	return nil
}

// ModelsFor returns the models of a make, or nil if the make is unknown
func (r *Reference) ModelsFor(makeName string) []string {
	for _, m := range r.Makes {
		if m.Make == makeName {
			return m.Models
		}
	}
	return nil
}
