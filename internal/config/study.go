package config

import (
	"bytes"
	"fmt"
	"os"

	"crosspred/internal/errors"

	"gopkg.in/yaml.v3"
)

// StudyPlan is the optional YAML description of one study. Zero fields
// leave the environment value in place.
type StudyPlan struct {
	Name            string   `yaml:"name"`
	Measures        []string `yaml:"measures"`
	Models          []string `yaml:"models"`
	WISCLevel       *int     `yaml:"wisc_level"`
	NumPermutations int      `yaml:"n_permutations"`
	NumBins         int      `yaml:"num_bins"`
	Seed            *int64   `yaml:"seed"`
	Scorer          string   `yaml:"scorer"`
	CV              struct {
		Splits  int `yaml:"splits"`
		Repeats int `yaml:"repeats"`
	} `yaml:"cv"`
}

// LoadStudy parses a study plan file
func LoadStudy(path string) (*StudyPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "read study plan %s", path)
	}
	return ParseStudy(data)
}

// ParseStudy decodes a study plan, rejecting unknown keys
func ParseStudy(data []byte) (*StudyPlan, error) {
	var plan StudyPlan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("invalid study plan: %v", err))
	}
	return &plan, nil
}

// Apply overrides the analysis settings the plan sets
func (p *StudyPlan) Apply(a *AnalysisConfig) {
	if len(p.Measures) > 0 {
		a.Measures = p.Measures
	}
	if len(p.Models) > 0 {
		a.Models = p.Models
	}
	if p.WISCLevel != nil {
		a.WISCLevel = *p.WISCLevel
	}
	if p.NumPermutations > 0 {
		a.NumPermutations = p.NumPermutations
	}
	if p.NumBins > 0 {
		a.NumBins = p.NumBins
	}
	if p.Seed != nil {
		a.Seed = *p.Seed
	}
	if p.Scorer != "" {
		a.Scorer = p.Scorer
	}
	if p.CV.Splits > 0 {
		a.CVSplits = p.CV.Splits
	}
	if p.CV.Repeats > 0 {
		a.CVRepeats = p.CV.Repeats
	}
}
