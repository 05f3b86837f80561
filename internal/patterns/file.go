package patterns

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// patternFile is the YAML layout of a pattern file:
//
//	name: beehive
//	rows:
//	  - ".OO."
//	  - "O..O"
//	  - ".OO."
type patternFile struct {
	Name string   `yaml:"name"`
	Rows []string `yaml:"rows"`
}

// Resolve returns a built-in pattern by name or, when ref names an existing
// file, loads it from disk.
func Resolve(ref string) (Pattern, error) {
	if p, err := Lookup(ref); err == nil {
		return p, nil
	}
	if _, err := os.Stat(ref); err == nil {
		return LoadFile(ref)
	}
	return Lookup(ref)
}

// LoadFile reads a pattern from a .yaml/.yml file or a plaintext .cells file.
func LoadFile(path string) (Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pattern{}, fmt.Errorf("reading pattern file: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data, base)
	default:
		return ParsePlaintext(string(data), base)
	}
}

func parseYAML(data []byte, fallbackName string) (Pattern, error) {
	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return Pattern{}, fmt.Errorf("parsing pattern file: %w", err)
	}
	name := pf.Name
	if name == "" {
		name = fallbackName
	}
	if len(pf.Rows) == 0 {
		return Pattern{}, fmt.Errorf("pattern %q: no rows", name)
	}
	return FromStrings(name, pf.Rows...)
}

// ParsePlaintext reads the .cells format: lines starting with '!' are
// comments, "!Name: x" sets the name, 'O' is alive and '.' is dead.
func ParsePlaintext(text, fallbackName string) (Pattern, error) {
	name := fallbackName
	var rows []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(line, "!") {
			if v, ok := strings.CutPrefix(line, "!Name:"); ok {
				name = strings.TrimSpace(v)
			}
			continue
		}
		rows = append(rows, strings.TrimRight(line, " \t"))
	}

	// Drop trailing blank lines, keep interior ones as dead rows.
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return Pattern{}, fmt.Errorf("pattern %q: no rows", name)
	}
	return FromStrings(name, rows...)
}
