package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// definitionFile is the on-disk wrapper around a task definition.
type definitionFile struct {
	TaskDefinition TaskDefinition `json:"task_definition" yaml:"task_definition"`
}

// LoadDefinition reads a task definition from a YAML or JSON file. The
// format is chosen by extension; .yaml and .yml parse as YAML,
// everything else as JSON.
func LoadDefinition(path string) (TaskDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TaskDefinition{}, fmt.Errorf("read task definition: %w", err)
	}

	var file definitionFile
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return TaskDefinition{}, fmt.Errorf("parse task definition %s: %w", path, err)
	}
	if file.TaskDefinition.Name == "" {
		return TaskDefinition{}, fmt.Errorf("task definition %s: missing name", path)
	}
	return file.TaskDefinition, nil
}

// ValidateInputs checks required inputs and fills in declared defaults.
// The returned map is a copy.
func ValidateInputs(def TaskDefinition, inputs map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(inputs))
	for k, v := range inputs {
		out[k] = v
	}
	for _, in := range def.Inputs {
		if _, present := out[in.Name]; present {
			continue
		}
		if in.Default != nil {
			out[in.Name] = in.Default
			continue
		}
		if in.Required {
			return nil, fmt.Errorf("missing required input %q", in.Name)
		}
	}
	return out, nil
}
