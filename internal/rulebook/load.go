package rulebook

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"cells/internal/core"
)

// ErrStateRange is returned when a rule mentions a state the document does
// not declare.
var ErrStateRange = errors.New("state out of range")

//go:embed rulebook.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("rulebook.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// Document is the on-disk description of a rule set.
type Document struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	States      int        `yaml:"states"`
	Initial     []float64  `yaml:"initial"`
	Rules       []RuleSpec `yaml:"rules"`
}

// RuleSpec registers Rule for every combination of From and Neighbor.
type RuleSpec struct {
	From        StateList  `yaml:"from"`
	Neighbor    StateList  `yaml:"neighbor"`
	To          core.State `yaml:"to"`
	Priority    int        `yaml:"priority"`
	Probability *float64   `yaml:"probability"`
}

// StateList accepts either a single state or a sequence of states.
type StateList []core.State

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StateList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var states []core.State
		if err := value.Decode(&states); err != nil {
			return err
		}
		*l = states
		return nil
	}
	var s core.State
	if err := value.Decode(&s); err != nil {
		return err
	}
	*l = StateList{s}
	return nil
}

// Load reads and validates a rule-set document from path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse validates raw YAML against the rule-set schema and decodes it.
func Parse(raw []byte) (*Document, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", err)
	}
	return &doc, nil
}

func validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile rule-set schema: %w", err)
	}
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode rule set: %w", err)
	}
	// The validator expects JSON-shaped values, so round-trip through JSON.
	b, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("decode rule set: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode rule set: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("invalid rule set: %w", err)
	}
	return nil
}

// Build registers every rule of the document, in document order, into a new
// frozen rulebook drawing from src. Later entries overwrite earlier ones for
// the same pair.
func (d *Document) Build(src core.Source) (*Rulebook, error) {
	rb := New(src)
	for i, spec := range d.Rules {
		p := 1.0
		if spec.Probability != nil {
			p = *spec.Probability
		}
		if err := d.checkState(spec.To); err != nil {
			return nil, fmt.Errorf("rule %d: to: %w", i, err)
		}
		for _, a := range spec.From {
			if err := d.checkState(a); err != nil {
				return nil, fmt.Errorf("rule %d: from: %w", i, err)
			}
			for _, b := range spec.Neighbor {
				if err := d.checkState(b); err != nil {
					return nil, fmt.Errorf("rule %d: neighbor: %w", i, err)
				}
				if err := rb.Register(a, b, spec.To, spec.Priority, p); err != nil {
					return nil, fmt.Errorf("rule %d: %w", i, err)
				}
			}
		}
	}
	rb.Freeze()
	return rb, nil
}

func (d *Document) checkState(s core.State) error {
	if int(s) >= d.States {
		return fmt.Errorf("%w: %d (document declares %d states)", ErrStateRange, s, d.States)
	}
	return nil
}
