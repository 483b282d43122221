package modelfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the encoding from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.ValidationErrorf("unsupported model file %q, expected .json, .yaml or .yml", path)
}

func Encode(model *entities.DataModel, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode model as json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(model); err != nil {
			return nil, fmt.Errorf("failed to encode model as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode model as yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, errors.ValidationErrorf("unknown model format %q", format)
}

func Decode(data []byte, format Format) (*entities.DataModel, error) {
	var model entities.DataModel
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &model); err != nil {
			return nil, errors.ValidationErrorf("invalid json model: %v", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &model); err != nil {
			return nil, errors.ValidationErrorf("invalid yaml model: %v", err)
		}
	default:
		return nil, errors.ValidationErrorf("unknown model format %q", format)
	}
	if model.Edges == nil {
		model.Edges = []entities.GraphEdge{}
	}
	return &model, nil
}

func Read(path string) (*entities.DataModel, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundErrorf("model file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return Decode(data, format)
}

func Write(path string, model *entities.DataModel) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(model, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}
