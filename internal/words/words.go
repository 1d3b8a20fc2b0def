// internal/words/words.go
package words

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when a word file holds no usable words.
var ErrEmpty = errors.New("word list is empty")

// Fallback is the built-in list used when no word file is configured.
var Fallback = []string{
	"Pizza", "Playa", "Guitarra", "Elefante", "Hospital", "Biblioteca", "Avión", "Chocolate",
	"Fútbol", "Montaña", "Cine", "Dragón", "Piano", "Volcán", "Astronauta", "Pirata",
	"Castillo", "Bicicleta", "Helado", "Tiburón", "Museo", "Circo", "Robot", "Jardín",
	"Semáforo", "Paraguas", "Cohete", "Desierto", "Reloj", "Mariposa",
}

// yamlFile is the shape of a YAML word file. A bare top-level list is also accepted.
type yamlFile struct {
	Words []string `yaml:"words"`
}

// Load reads a word list from path. The format follows the extension:
//   - .json: an array of strings
//   - .yaml / .yml: a list, or a mapping with a "words" list
//   - anything else: one word per line, # starts a comment
//
// Words are trimmed and de-duplicated case-insensitively, keeping the first spelling.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word file: %w", err)
	}

	var raw []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		raw, err = parseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		for _, line := range strings.Split(string(data), "\n") {
			if i := strings.Index(line, "#"); i >= 0 {
				line = line[:i]
			}
			raw = append(raw, line)
		}
	}

	list := clean(raw)
	if len(list) == 0 {
		return nil, ErrEmpty
	}
	return list, nil
}

func parseYAML(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []string
		err := root.Decode(&list)
		return list, err
	}
	var f yamlFile
	err := root.Decode(&f)
	return f.Words, err
}

func clean(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

// LoadOrFallback loads path, or returns Fallback when path is empty or unusable.
func LoadOrFallback(path string, log logrus.FieldLogger) []string {
	if path == "" {
		return Fallback
	}
	list, err := Load(path)
	if err != nil {
		log.WithField("path", path).Warnf("using built-in word list: %v", err)
		return Fallback
	}
	log.WithField("path", path).Infof("loaded %d words", len(list))
	return list
}
