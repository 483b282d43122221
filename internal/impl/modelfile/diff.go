package modelfile

import (
	"fmt"

	"github.com/drujensen/datamodels/internal/domain/entities"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff of the YAML forms of two models. It returns an
// empty string when they are the same.
func Diff(from, to *entities.DataModel, fromName, toName string) (string, error) {
	a, err := Encode(from, FormatYAML)
	if err != nil {
		return "", err
	}
	b, err := Encode(to, FormatYAML)
	if err != nil {
		return "", err
	}
	if string(a) == string(b) {
		return "", nil
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	diffStr, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to generate diff: %w", err)
	}
	return diffStr, nil
}
