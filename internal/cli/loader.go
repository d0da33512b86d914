package cli

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
)

// Request is one query request document: the target class, a raw
// parameter structure and optional traversal directives.
type Request struct {
	Class      string         `yaml:"class"`
	Params     map[string]any `yaml:"params"`
	Traversals TraversalSpec  `yaml:"traversals"`
}

// TraversalSpec mirrors the traversal directives of a request.
type TraversalSpec struct {
	Ancestors   []string `yaml:"ancestors"`
	Descendants []string `yaml:"descendants"`
	FuzzyMatch  int      `yaml:"fuzzyMatch"`
}

// LoadRequest reads and parses a request document from path.
func LoadRequest(path string) (*Request, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	var req Request
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("parsing request file %s: %w", path, err)
	}
	if req.Class == "" {
		return nil, fmt.Errorf("request file %s: class is required", path)
	}
	return &req, nil
}

// loadModels loads the schema definition named by the global flag.
func loadModels(opts *RootOptions) (schema.Set, error) {
	if opts.Schema == "" {
		return nil, errors.New("a schema definition file is required (--schema)")
	}
	return schema.LoadFile(opts.Schema)
}

// errorCode maps an error to its response code.
func errorCode(err error) string {
	var gkErr *gkerr.Error
	if errors.As(err, &gkErr) {
		return string(gkErr.Kind)
	}
	return "INTERNAL"
}
