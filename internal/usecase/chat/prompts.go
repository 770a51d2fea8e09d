package chat

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/futig/docchat/internal/entity"
	"gopkg.in/yaml.v3"
)

const DefaultRefusal = "I don't know based on the provided information"

const defaultGroundedPrompt = `You are an intelligent and trustworthy assistant designed to help users by answering questions based strictly on the provided document context.
Use only the information within the given context to generate responses.
If the answer isn't available in the context, respond with "{{.Refusal}}" and do not guess or fabricate details.

Context:
{{.Context}}
`

const defaultNoContextPrompt = `You are a helpful assistant that answers questions based on the user's documents.
I couldn't find relevant information in these documents to answer your question:

{{range .Documents}}- {{.}}
{{end}}
Please try rephrasing your question or selecting different documents.`

// PromptTemplates is the YAML shape of PROMPTS_FILE. Empty fields keep
// their defaults.
type PromptTemplates struct {
	Grounded  string `yaml:"grounded"`
	NoContext string `yaml:"no_context"`
	Refusal   string `yaml:"refusal"`
}

func DefaultPromptTemplates() PromptTemplates {
	return PromptTemplates{
		Grounded:  defaultGroundedPrompt,
		NoContext: defaultNoContextPrompt,
		Refusal:   DefaultRefusal,
	}
}

type groundedData struct {
	Context string
	Refusal string
}

type noContextData struct {
	Documents []string
}

// Prompts renders system prompts for both answer branches.
type Prompts struct {
	grounded  *template.Template
	noContext *template.Template
	refusal   string
}

func NewPrompts(t PromptTemplates) (*Prompts, error) {
	grounded, err := template.New("grounded").Option("missingkey=error").Parse(t.Grounded)
	if err != nil {
		return nil, fmt.Errorf("%w: grounded prompt: %w", entity.ErrConfiguration, err)
	}
	noContext, err := template.New("no_context").Option("missingkey=error").Parse(t.NoContext)
	if err != nil {
		return nil, fmt.Errorf("%w: no_context prompt: %w", entity.ErrConfiguration, err)
	}

	p := &Prompts{grounded: grounded, noContext: noContext, refusal: t.Refusal}

	// field typos only show up on execution
	if _, err := p.Grounded("sample"); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrConfiguration, err)
	}
	if _, err := p.NoContext([]string{"sample.txt"}); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrConfiguration, err)
	}
	return p, nil
}

// LoadPrompts returns the default prompts overlaid with the non-empty
// entries of the YAML file at path. An empty path means defaults only.
func LoadPrompts(path string) (*Prompts, error) {
	t := DefaultPromptTemplates()
	if path == "" {
		return NewPrompts(t)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read prompts file: %w", entity.ErrConfiguration, err)
	}

	var override PromptTemplates
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("%w: parse prompts file %s: %w", entity.ErrConfiguration, path, err)
	}
	if override.Grounded != "" {
		t.Grounded = override.Grounded
	}
	if override.NoContext != "" {
		t.NoContext = override.NoContext
	}
	if override.Refusal != "" {
		t.Refusal = override.Refusal
	}

	return NewPrompts(t)
}

func (p *Prompts) Refusal() string { return p.refusal }

// Grounded renders the prompt that confines the answer to contextBlock.
func (p *Prompts) Grounded(contextBlock string) (string, error) {
	var buf bytes.Buffer
	if err := p.grounded.Execute(&buf, groundedData{Context: contextBlock, Refusal: p.refusal}); err != nil {
		return "", fmt.Errorf("render grounded prompt: %w", err)
	}
	return buf.String(), nil
}

// NoContext renders the fallback prompt naming the selected documents.
func (p *Prompts) NoContext(documentNames []string) (string, error) {
	var buf bytes.Buffer
	if err := p.noContext.Execute(&buf, noContextData{Documents: documentNames}); err != nil {
		return "", fmt.Errorf("render no-context prompt: %w", err)
	}
	return buf.String(), nil
}
