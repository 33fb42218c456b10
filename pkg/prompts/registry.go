package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/protocol"
)

// ErrPromptNotFound is returned for a prompt that is neither built in nor on disk
var ErrPromptNotFound = errors.New("prompt not found")

// promptFile is the on-disk form of a prompt
type promptFile struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	Arguments   []protocol.PromptArgument `json:"arguments,omitempty"`
	Content     string                    `json:"content"`
}

// PromptRegistry serves the built in prompts, overridden or extended by JSON
// files in baseDir
type PromptRegistry struct {
	baseDir string
	builtin map[string]protocol.Prompt
}

// NewPromptRegistry creates a registry reading prompts from baseDir. An empty
// baseDir serves the built in prompts only.
func NewPromptRegistry(baseDir string) *PromptRegistry {
	pr := &PromptRegistry{baseDir: baseDir, builtin: map[string]protocol.Prompt{}}
	for _, p := range builtinPrompts() {
		pr.builtin[p.Name] = p
	}
	return pr
}

// GetPromptPath returns the file path for a prompt name
func (pr *PromptRegistry) GetPromptPath(name string) (string, error) {
	if pr.baseDir == "" {
		return "", fmt.Errorf("prompt registry has no directory")
	}
	// Validate the name to prevent directory traversal
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid prompt name format: %q", name)
	}
	return filepath.Join(pr.baseDir, name+".json"), nil
}

// GetPrompt retrieves a prompt by name, files win over built in prompts
func (pr *PromptRegistry) GetPrompt(name string) (*protocol.Prompt, error) {
	if pr.baseDir != "" {
		p, err := pr.readFile(name)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if p, ok := pr.builtin[name]; ok {
		return &p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
}

func (pr *PromptRegistry) readFile(name string) (*protocol.Prompt, error) {
	path, err := pr.GetPromptPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf promptFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}
	if pf.Name == "" {
		pf.Name = name
	}
	return &protocol.Prompt{Name: pf.Name, Description: pf.Description, Arguments: pf.Arguments, Content: pf.Content}, nil
}

// ListPrompts returns every available prompt ordered by name
func (pr *PromptRegistry) ListPrompts() ([]protocol.Prompt, error) {
	byName := map[string]protocol.Prompt{}
	for n, p := range pr.builtin {
		byName[n] = p
	}

	if pr.baseDir != "" {
		entries, err := os.ReadDir(pr.baseDir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to list prompts: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".json")
			p, err := pr.readFile(name)
			if err != nil {
				logger.Warn("Failed to read prompt", name, err)
				continue
			}
			byName[name] = *p
		}
	}

	out := make([]protocol.Prompt, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SavePrompt writes a prompt to the registry directory
func (pr *PromptRegistry) SavePrompt(p *protocol.Prompt) error {
	if p.Name == "" {
		return fmt.Errorf("prompt name cannot be empty")
	}
	path, err := pr.GetPromptPath(p.Name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(promptFile{Name: p.Name, Description: p.Description, Arguments: p.Arguments, Content: p.Content}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prompt: %w", err)
	}
	if err := os.MkdirAll(pr.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create prompt directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write prompt file: %w", err)
	}
	return nil
}

// DeletePrompt removes a prompt file. Built in prompts cannot be deleted.
func (pr *PromptRegistry) DeletePrompt(name string) error {
	path, err := pr.GetPromptPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPromptNotFound, name)
		}
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	return nil
}

// Render fills the {{name}} placeholders of a prompt. Missing required
// arguments are an error, missing optional ones render empty.
func (pr *PromptRegistry) Render(name string, args map[string]string) (*protocol.Prompt, string, error) {
	p, err := pr.GetPrompt(name)
	if err != nil {
		return nil, "", err
	}
	content := p.Content
	for _, a := range p.Arguments {
		v, ok := args[a.Name]
		if !ok && a.Required {
			return nil, "", fmt.Errorf("prompt %s: missing required argument %s", name, a.Name)
		}
		content = strings.ReplaceAll(content, "{{"+a.Name+"}}", v)
	}
	// arguments the prompt does not declare are still substituted
	for k, v := range args {
		content = strings.ReplaceAll(content, "{{"+k+"}}", v)
	}
	return p, content, nil
}
