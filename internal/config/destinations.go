package config

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Destination is the per-destination portal setup.
type Destination struct {
	LocationCode string `json:"locationCode" yaml:"locationCode"`
	POLs         string `json:"pols" yaml:"pols"`
	PODs         string `json:"pods" yaml:"pods"`
}

// Destinations maps a free-text destination to its portal setup.
type Destinations map[string]Destination

// Names returns the destination names in sorted order.
func (d Destinations) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns the names without a location code.
func (d Destinations) Missing() []string {
	var out []string
	for _, name := range d.Names() {
		if d[name].LocationCode == "" {
			out = append(out, name)
		}
	}
	return out
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadDestinations reads the destination config at path. JSON and YAML are
// chosen by extension. When the file does not exist it is created from the
// names in listPath with empty settings.
func LoadDestinations(path, listPath string) (Destinations, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return initDestinations(path, listPath)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "config: read destinations %s", path)
	}

	d := Destinations{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &d)
	} else {
		err = json.Unmarshal(data, &d)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "config: parse destinations %s", path)
	}
	return d, nil
}

func initDestinations(path, listPath string) (Destinations, error) {
	d := Destinations{}
	f, err := os.Open(listPath)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "config: open destination list %s", listPath)
	}
	defer f.Close() //nolint:errcheck

	names, err := ReadDestinationList(f)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		d[name] = Destination{}
	}
	if err := SaveDestinations(path, d); err != nil {
		return nil, err
	}
	zap.L().Info("config: initialized destinations",
		zap.String("path", path),
		zap.Int("count", len(d)),
	)
	return d, nil
}

// ReadDestinationList reads one destination per line, skipping blank lines
// and '#' comments.
func ReadDestinationList(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "config: read destination list")
	}
	return out, nil
}

// SaveDestinations writes d to path in the format chosen by its extension.
func SaveDestinations(path string, d Destinations) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(d)
	} else {
		data, err = json.MarshalIndent(d, "", "  ")
	}
	if err != nil {
		return eris.Wrap(err, "config: marshal destinations")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "config: write destinations %s", path)
	}
	return nil
}
