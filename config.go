package iso8583

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldConfig describes one field of a packager definition file.
type FieldConfig struct {
	// Class is a registered field class such as "IFA_LLNUM".
	Class     string `json:"class" yaml:"class"`
	Length    int    `json:"length" yaml:"length"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Mandatory bool   `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Subfields turns the field into a nested message carried by Class.
	Subfields *PackagerConfig `json:"subfields,omitempty" yaml:"subfields,omitempty"`
}

// PackagerConfig is a message layout keyed by field number.
type PackagerConfig struct {
	Description  string              `json:"description,omitempty" yaml:"description,omitempty"`
	HeaderLength int                 `json:"headerLength,omitempty" yaml:"headerLength,omitempty"`
	Fields       map[int]FieldConfig `json:"fields" yaml:"fields"`
}

func ParsePackagerJSON(data []byte) (*PackagerConfig, error) {
	var cfg PackagerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal packager JSON: %w", err)
	}
	return &cfg, nil
}

func ParsePackagerYAML(data []byte) (*PackagerConfig, error) {
	var cfg PackagerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal packager YAML: %w", err)
	}
	return &cfg, nil
}

// LoadPackagerJSON parses and builds a JSON layout.
func LoadPackagerJSON(data []byte, opts ...PackagerOption) (*MessagePackager, error) {
	cfg, err := ParsePackagerJSON(data)
	if err != nil {
		return nil, err
	}
	return cfg.Build(opts...)
}

// LoadPackagerYAML parses and builds a YAML layout.
func LoadPackagerYAML(data []byte, opts ...PackagerOption) (*MessagePackager, error) {
	cfg, err := ParsePackagerYAML(data)
	if err != nil {
		return nil, err
	}
	return cfg.Build(opts...)
}

// Build creates the packager described by c. opts apply to nested
// packagers too.
func (c *PackagerConfig) Build(opts ...PackagerOption) (*MessagePackager, error) {
	maxField := -1
	for n := range c.Fields {
		if n < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidField, n)
		}
		if n > maxField {
			maxField = n
		}
	}

	fields := make([]FieldPackager, maxField+1)
	for n, fc := range c.Fields {
		fp, err := fc.build(opts)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", n, err)
		}
		fields[n] = fp
	}

	all := append([]PackagerOption{
		WithDescription(c.Description),
		WithHeaderLength(c.HeaderLength),
	}, opts...)
	return NewMessagePackager(fields, all...), nil
}

func (fc FieldConfig) build(opts []PackagerOption) (FieldPackager, error) {
	fn, ok := LookupFieldType(fc.Class)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, fc.Class)
	}
	fp := fn(fc.Length, fc.Name)
	if fc.Subfields == nil {
		return fp, nil
	}

	outer, ok := fp.(*LeafPackager)
	if !ok {
		return nil, fmt.Errorf("%w: class %s cannot carry subfields", ErrNotComposite, fc.Class)
	}
	inner, err := fc.Subfields.Build(opts...)
	if err != nil {
		return nil, err
	}
	return NewSubMessagePackager(outer, inner), nil
}

// Validator derives the checks implied by the layout: mandatory fields,
// digits only for numeric classes, and Pattern where given.
func (c *PackagerConfig) Validator() (*Validator, error) {
	v := NewValidator()
	if err := c.addRules(v, ""); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *PackagerConfig) addRules(v *Validator, prefix string) error {
	keys := make([]int, 0, len(c.Fields))
	for n := range c.Fields {
		keys = append(keys, n)
	}
	sort.Ints(keys)

	for _, n := range keys {
		fc := c.Fields[n]
		path := prefix + strconv.Itoa(n)
		if fc.Mandatory {
			v.Require(path)
		}
		if fc.Subfields != nil {
			if err := fc.Subfields.addRules(v, path+"."); err != nil {
				return err
			}
			continue
		}
		class := strings.ToUpper(fc.Class)
		if strings.Contains(class, "NUM") && !strings.HasSuffix(class, "BITMAP") {
			v.AddRule(path, NumericRule{AllowEmpty: true})
		}
		if fc.Pattern != "" {
			rule, err := NewRegexRule(fc.Pattern, "")
			if err != nil {
				return fmt.Errorf("field %s: %w", path, err)
			}
			v.AddRule(path, rule)
		}
	}
	return nil
}
