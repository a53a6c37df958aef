package taxonomy

import (
	"github.com/go-playground/validator/v10"
)

// File is the on-disk (YAML) shape of a taxonomy
type File struct {
	Version          int            `yaml:"version" json:"version" validate:"required,eq=1"`
	Categories       []CategorySpec `yaml:"categories" json:"categories" validate:"required,min=1,dive"`
	Groups           []GroupSpec    `yaml:"groups" json:"groups" validate:"dive"`
	ClauseMarkers    []string       `yaml:"clause_markers" json:"clause_markers" validate:"required,min=1,dive,required"`
	RiskIndicators   []string       `yaml:"risk_indicators" json:"risk_indicators" validate:"required,min=1,dive,required"`
	AmbiguityPhrases []string       `yaml:"ambiguity_phrases" json:"ambiguity_phrases" validate:"required,min=1,dive,required"`
}

// CategorySpec is one risk category as written in the taxonomy file
type CategorySpec struct {
	Name           string   `yaml:"name" json:"name" validate:"required,lowercase"`
	DisplayName    string   `yaml:"display_name" json:"display_name" validate:"required"`
	Triggers       []string `yaml:"triggers" json:"triggers" validate:"required,min=1,dive,required"`
	Severity       float64  `yaml:"severity" json:"severity" validate:"gte=0,lte=10"`
	Tier           string   `yaml:"tier" json:"tier" validate:"required,oneof=HIGH MEDIUM LOW"`
	Priority       string   `yaml:"priority" json:"priority" validate:"required,oneof=HIGH MEDIUM"`
	Consequence    string   `yaml:"consequence" json:"consequence" validate:"required"`
	Recommendation string   `yaml:"recommendation" json:"recommendation" validate:"required"`
}

// GroupSpec is a named set of related categories used for chain building
type GroupSpec struct {
	Name    string   `yaml:"name" json:"name" validate:"required"`
	Members []string `yaml:"members" json:"members" validate:"required,min=2,dive,required"`
}

// fileValidate validates taxonomy files. Initialized once in init().
var fileValidate *validator.Validate

func init() {
	fileValidate = validator.New(validator.WithRequiredStructEnabled())
}
