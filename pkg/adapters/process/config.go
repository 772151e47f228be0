package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Command is one allow-listed local process.
type Command struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	// Keywords select a data source for a generation prompt. Ignored for tools.
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// File is the process section of canopy.yaml: mutation tools and read-only
// data sources.
type File struct {
	Tools   []Command `yaml:"tools" json:"tools"`
	Sources []Command `yaml:"sources" json:"sources"`
}

// Load reads a YAML or JSON process file. A missing file means nothing is
// configured and is not an error.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read process config: %w", err)
	}

	var f File
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	f.Tools = named(f.Tools)
	f.Sources = named(f.Sources)
	return &f, nil
}

// named drops entries without a name or command.
func named(cmds []Command) []Command {
	out := cmds[:0]
	for _, c := range cmds {
		if c.Name == "" || c.Command == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
