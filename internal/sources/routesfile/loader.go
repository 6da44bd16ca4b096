package routesfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads the declared routes file
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file the loader reads
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the routes file. Unknown keys are rejected so a typo
// doesn't silently drop a route.
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse routes yaml: %w", err)
	}

	return &f, nil
}

// Ports validates the entries and returns their ports in file order.
func (f *File) Ports() ([]uint32, error) {
	seen := make(map[int64]bool, len(f.Routes))
	ports := make([]uint32, 0, len(f.Routes))

	for i, e := range f.Routes {
		if e.Port < 1 || e.Port > 65535 {
			return nil, fmt.Errorf("routes[%d]: port %d out of range 1-65535", i, e.Port)
		}
		if seen[e.Port] {
			return nil, fmt.Errorf("routes[%d]: duplicate port %d", i, e.Port)
		}
		seen[e.Port] = true
		ports = append(ports, uint32(e.Port))
	}

	return ports, nil
}
