package crew

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Prompt is the system instruction and user template for one stage.
// Templates reference inputs as {name}.
type Prompt struct {
	System   string `yaml:"system"`
	Template string `yaml:"template"`
}

// Render substitutes vars into the template.
func (p Prompt) Render(vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(p.Template)
}

// Prompts holds the stage prompts.
type Prompts struct {
	Analyzer   Prompt `yaml:"analyzer"`
	Summarizer Prompt `yaml:"summarizer"`
	Icebreaker Prompt `yaml:"icebreaker"`
}

// LoadPrompts parses a prompt catalogue. A nil argument loads the built-in one.
func LoadPrompts(data []byte) (*Prompts, error) {
	if data == nil {
		data = promptsYAML
	}
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "crew: parse prompts")
	}
	for name, pr := range map[string]Prompt{
		"analyzer":   p.Analyzer,
		"summarizer": p.Summarizer,
		"icebreaker": p.Icebreaker,
	} {
		if strings.TrimSpace(pr.Template) == "" {
			return nil, eris.Errorf("crew: prompt %q has no template", name)
		}
	}
	return &p, nil
}
