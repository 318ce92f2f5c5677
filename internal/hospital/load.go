package hospital

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/wardline/internal/geo"
)

//go:embed hospitals.yaml
var defaultTable []byte

// tableFile is the on-disk layout of a hospital table.
type tableFile struct {
	Hospitals []struct {
		Name          string  `yaml:"name"`
		Latitude      float64 `yaml:"latitude"`
		Longitude     float64 `yaml:"longitude"`
		BedsAvailable int     `yaml:"beds_available"`
	} `yaml:"hospitals"`
}

// Parse decodes a YAML hospital table. Records keep their file order.
func Parse(data []byte) ([]Hospital, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("decode hospital table: %w", err)
	}
	if len(tf.Hospitals) == 0 {
		return nil, fmt.Errorf("hospital table is empty")
	}

	out := make([]Hospital, 0, len(tf.Hospitals))
	for _, h := range tf.Hospitals {
		out = append(out, Hospital{
			Name:          h.Name,
			Location:      geo.Point{Lat: h.Latitude, Lng: h.Longitude},
			BedsAvailable: h.BedsAvailable,
		})
	}
	return out, nil
}

// LoadFile reads and parses the hospital table at path.
func LoadFile(path string) ([]Hospital, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read hospital table: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in hospital table.
func Default() []Hospital {
	hs, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded hospital table: %v", err))
	}
	return hs
}

// Load returns the table at path, or the built-in table when path is empty.
func Load(path string) ([]Hospital, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
