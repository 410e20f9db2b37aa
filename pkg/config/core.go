package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Unit systems accepted in the core section.
const (
	UnitSystemMetric   = "metric"
	UnitSystemImperial = "imperial"
)

// CoreConfig is the core section of configuration.yaml.
type CoreConfig struct {
	Name       string                    `yaml:"name"`
	Latitude   *float64                  `yaml:"latitude"`
	Longitude  *float64                  `yaml:"longitude"`
	Elevation  *int                      `yaml:"elevation"`
	UnitSystem string                    `yaml:"unit_system"`
	TimeZone   string                    `yaml:"time_zone"`
	Customize  map[string]map[string]any `yaml:"customize"`
}

// Validate checks every field and returns all failures at once.
func (c CoreConfig) Validate() error {
	var errs *multierror.Error

	if c.Latitude != nil && (*c.Latitude < -90 || *c.Latitude > 90) {
		errs = multierror.Append(errs, fmt.Errorf("latitude %v out of range [-90, 90]", *c.Latitude))
	}
	if c.Longitude != nil && (*c.Longitude < -180 || *c.Longitude > 180) {
		errs = multierror.Append(errs, fmt.Errorf("longitude %v out of range [-180, 180]", *c.Longitude))
	}
	switch c.UnitSystem {
	case "", UnitSystemMetric, UnitSystemImperial:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unit_system %q must be %s or %s", c.UnitSystem, UnitSystemMetric, UnitSystemImperial))
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("time_zone %q: unknown time zone", c.TimeZone))
		}
	}
	for entity := range c.Customize {
		if !strings.Contains(entity, ".") {
			errs = multierror.Append(errs, fmt.Errorf("customize key %q is not an entity id", entity))
		}
	}

	if errs != nil {
		errs.ErrorFormat = joinErrors
	}
	return errs.ErrorOrNil()
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func decodeCore(n *yaml.Node) (CoreConfig, error) {
	var cc CoreConfig
	// "homeassistant:" with no body is an empty section.
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return cc, nil
	}
	if n.Kind != yaml.MappingNode {
		return cc, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	if err := n.Decode(&cc); err != nil {
		return cc, err
	}
	return cc, cc.Validate()
}
