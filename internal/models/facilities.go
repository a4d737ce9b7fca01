package models

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed facilities.yaml
var defaultFacilityCatalog []byte

// Facility is a bookable campus space. The catalog is static data owned
// outside the booking core.
type Facility struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Capacity    int      `yaml:"capacity" json:"capacity"`
	Rules       []string `yaml:"rules" json:"rules"`
	Amenities   []string `yaml:"amenities" json:"amenities"`
	Image       string   `yaml:"image" json:"image,omitempty"`
	ImageURL    string   `yaml:"-" json:"image_url,omitempty"`
}

type FacilityCatalog struct {
	facilities []Facility
	byID       map[string]int
}

// LoadFacilityCatalog reads the catalog at path, or the embedded default
// catalog when path is empty.
func LoadFacilityCatalog(path string) (*FacilityCatalog, error) {
	if path == "" {
		return ParseFacilityCatalog(defaultFacilityCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facility catalog: %w", err)
	}
	return ParseFacilityCatalog(data)
}

func ParseFacilityCatalog(data []byte) (*FacilityCatalog, error) {
	var doc struct {
		Facilities []Facility `yaml:"facilities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse facility catalog: %w", err)
	}
	return NewFacilityCatalog(doc.Facilities)
}

func NewFacilityCatalog(facilities []Facility) (*FacilityCatalog, error) {
	if len(facilities) == 0 {
		return nil, fmt.Errorf("facility catalog is empty")
	}

	c := &FacilityCatalog{byID: make(map[string]int, len(facilities))}
	for _, f := range facilities {
		f.ID = strings.TrimSpace(f.ID)
		if f.ID == "" || strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("facility must have an id and a name")
		}
		if f.Capacity <= 0 {
			return nil, fmt.Errorf("facility %s: capacity must be > 0", f.ID)
		}
		if _, dup := c.byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate facility id %s", f.ID)
		}
		c.byID[f.ID] = len(c.facilities)
		c.facilities = append(c.facilities, f)
	}
	return c, nil
}

func (c *FacilityCatalog) All() []Facility {
	out := make([]Facility, len(c.facilities))
	copy(out, c.facilities)
	return out
}

func (c *FacilityCatalog) Get(id string) (Facility, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Facility{}, false
	}
	return c.facilities[i], true
}

// SetImageURL records the resolved delivery URL for a facility image.
func (c *FacilityCatalog) SetImageURL(id, url string) {
	if i, ok := c.byID[id]; ok {
		c.facilities[i].ImageURL = url
	}
}
