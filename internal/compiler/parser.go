package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/rapport/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser converts raw node records (YAML or JSON) into node definitions.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

type nodeRecord struct {
	ID         string            `mapstructure:"id"`
	Kind       string            `mapstructure:"kind"`
	Type       string            `mapstructure:"type"`
	Prompt     string            `mapstructure:"prompt"`
	Content    string            `mapstructure:"content"`
	Field      string            `mapstructure:"field"`
	Required   bool              `mapstructure:"required"`
	Label      string            `mapstructure:"label"`
	Options    []optionRecord    `mapstructure:"options"`
	Validation *validationRecord `mapstructure:"validation"`
	Next       string            `mapstructure:"next"`
	Skippable  bool              `mapstructure:"skippable"`
	Command    string            `mapstructure:"command"`
	Catalog    string            `mapstructure:"catalog"`
}

type optionRecord struct {
	ID    string `mapstructure:"id"`
	Text  string `mapstructure:"text"`
	Value string `mapstructure:"value"`

	// Action is either a kind name (with Target) or a {kind, target} map.
	Action any    `mapstructure:"action"`
	Target string `mapstructure:"target"`

	// Shorthands: exactly one may be set instead of Action.
	Goto    string `mapstructure:"goto"`
	Command string `mapstructure:"command"`
	URL     string `mapstructure:"url"`
}

type validationRecord struct {
	MinLength int      `mapstructure:"min_length"`
	MaxLength int      `mapstructure:"max_length"`
	Pattern   string   `mapstructure:"pattern"`
	Type      string   `mapstructure:"type"`
	Min       *float64 `mapstructure:"min"`
	Max       *float64 `mapstructure:"max"`
	Host      string   `mapstructure:"host"`
	Message   string   `mapstructure:"message"`
}

// Parse decodes one node record. JSON is accepted as a subset of YAML.
func (p *Parser) Parse(data []byte) (*domain.NodeDefinition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse node: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to parse node: empty document")
	}
	return p.ParseMap(raw)
}

// ParseMap decodes an already unmarshalled node record.
func (p *Parser) ParseMap(raw map[string]any) (*domain.NodeDefinition, error) {
	var rec nodeRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	return rec.toDomain()
}

func (r nodeRecord) toDomain() (*domain.NodeDefinition, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("node missing ID")
	}

	kindName := r.Kind
	if kindName == "" {
		kindName = r.Type
	}
	kind, err := domain.ParseNodeKind(kindName)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", r.ID, err)
	}

	prompt := r.Prompt
	if prompt == "" {
		prompt = strings.TrimSpace(r.Content)
	}

	node := &domain.NodeDefinition{
		ID:        r.ID,
		Kind:      kind,
		Prompt:    prompt,
		Field:     r.Field,
		Required:  r.Required,
		Label:     r.Label,
		Next:      r.Next,
		Skippable: r.Skippable,
		Command:   r.Command,
		Catalog:   r.Catalog,
	}

	seen := make(map[string]bool, len(r.Options))
	for i, o := range r.Options {
		opt, err := o.toDomain()
		if err != nil {
			return nil, fmt.Errorf("node %s option %d: %w", r.ID, i, err)
		}
		if seen[opt.ID] {
			return nil, fmt.Errorf("node %s: duplicate option %q", r.ID, opt.ID)
		}
		seen[opt.ID] = true
		node.Options = append(node.Options, opt)
	}

	if v := r.Validation; v != nil {
		node.Validation = &domain.Validation{
			MinLength: v.MinLength,
			MaxLength: v.MaxLength,
			Pattern:   v.Pattern,
			Type:      domain.SemanticType(v.Type),
			Min:       v.Min,
			Max:       v.Max,
			Host:      v.Host,
			Message:   v.Message,
		}
	}

	if kind == domain.KindAction && node.Command == "" {
		return nil, fmt.Errorf("node %s: action node requires a command", r.ID)
	}
	return node, nil
}

func (o optionRecord) toDomain() (domain.Option, error) {
	id := o.ID
	if id == "" {
		id = o.Value
	}
	if id == "" {
		id = o.Text
	}
	if id == "" {
		return domain.Option{}, fmt.Errorf("option needs an id, value or text")
	}

	action, err := o.action()
	if err != nil {
		return domain.Option{}, err
	}
	return domain.Option{ID: id, Text: o.Text, Value: o.Value, Action: action}, nil
}

func (o optionRecord) action() (domain.Action, error) {
	shorthands := 0
	var a domain.Action
	if o.Goto != "" {
		shorthands++
		a = domain.Goto(o.Goto)
	}
	if o.Command != "" {
		shorthands++
		a = domain.Command(o.Command)
	}
	if o.URL != "" {
		shorthands++
		a = domain.URL(o.URL)
	}
	if shorthands > 1 {
		return domain.Action{}, fmt.Errorf("option %q sets more than one of goto, command, url", o.Text)
	}

	switch v := o.Action.(type) {
	case nil:
		if shorthands == 1 {
			return a, nil
		}
		return domain.ParseAction("", o.Target)
	case string:
		if shorthands == 1 {
			return domain.Action{}, fmt.Errorf("option %q mixes action with a shorthand", o.Text)
		}
		return domain.ParseAction(v, o.Target)
	case map[string]any:
		if shorthands == 1 {
			return domain.Action{}, fmt.Errorf("option %q mixes action with a shorthand", o.Text)
		}
		kind, _ := v["kind"].(string)
		target, _ := v["target"].(string)
		return domain.ParseAction(kind, target)
	default:
		return domain.Action{}, fmt.Errorf("option %q: unsupported action %T", o.Text, o.Action)
	}
}
