// Package bootstrap loads the fixed executor table.
package bootstrap

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sitecore/order-marketplace/internal/core/ports"
)

//go:embed executors.yaml
var defaultExecutors []byte

type executorFile struct {
	Executors []ports.ExecutorSeed `yaml:"executors"`
}

// LoadExecutors reads the executor table from path. An empty path selects the
// built-in table.
func LoadExecutors(path string) ([]ports.ExecutorSeed, error) {
	if path == "" {
		return DefaultExecutors()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read executors file: %w", err)
	}
	return parseExecutors(raw)
}

// DefaultExecutors returns the built-in executor table.
func DefaultExecutors() ([]ports.ExecutorSeed, error) {
	return parseExecutors(defaultExecutors)
}

func parseExecutors(raw []byte) ([]ports.ExecutorSeed, error) {
	var f executorFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse executors: %w", err)
	}
	if len(f.Executors) == 0 {
		return nil, errors.New("executor table is empty")
	}
	seen := make(map[string]bool, len(f.Executors))
	for i, e := range f.Executors {
		id := strings.TrimSpace(e.ID)
		if id == "" || strings.TrimSpace(e.Name) == "" || e.Password == "" {
			return nil, fmt.Errorf("executor %d: id, name and password are required", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("executor %q listed twice", id)
		}
		seen[id] = true
		f.Executors[i].ID = id
	}
	return f.Executors, nil
}
