package presets

import (
	"fmt"

	"mercator-hq/europa/pkg/export"
)

// Preset is a named, reusable export request. Operators keep presets in
// YAML files so recurring exports are submitted by name instead of by
// hand-built request payloads.
//
// File format:
//
//	name: quartz-survey
//	description: Weekly quartz entries for the materials team
//	request:
//	  query:
//	    owner: visible
//	    filters:
//	      element: Si
//	  projection:
//	    include: [id, element, temperature]
//	  format: parquet
type Preset struct {
	// Name identifies the preset. Unique within a library; defaults to
	// the file name without extension when omitted.
	Name string `yaml:"name" json:"name"`

	// Description is free-form operator documentation.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Request is the export request submitted when the preset is run.
	Request *export.Request `yaml:"request" json:"request"`
}

// Validate checks the preset for structural problems.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset has no name")
	}
	if p.Request == nil {
		return fmt.Errorf("preset %q has no request", p.Name)
	}
	if err := p.Request.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return nil
}
