package roster

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

// DefaultJSONPath selects the entries of a plain JSON array.
const DefaultJSONPath = "$[*]"

var ErrNoNames = errors.New("no rider names found")

type yamlRoster struct {
	Riders []string `yaml:"riders"`
}

// LoadFile reads a roster from path. The format is chosen by extension:
//
//	.yml/.yaml  list of names or a map with key "riders"
//	.json       names selected by the JSONPath expression jsonPath
//	            (DefaultJSONPath if empty)
//	otherwise   one name per line, lines starting with # are ignored
func LoadFile(path, jsonPath string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, err
	}
	var names []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		names, err = parseYAML(data)
	case ".json":
		names, err = ParseJSON(data, jsonPath)
	default:
		names, err = parseText(data)
	}
	if err != nil {
		return Roster{}, fmt.Errorf("reading roster %s: %w", path, err)
	}
	r := New(names...)
	if r.Len() == 0 {
		return Roster{}, fmt.Errorf("reading roster %s: %w", path, ErrNoNames)
	}
	return r, nil
}

func parseYAML(data []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc yamlRoster
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Riders, nil
}

// ParseJSON extracts the rider names from a JSON document, e.g. an entry list
// with the expression "$.riders[*].name".
func ParseJSON(data []byte, jsonPath string) ([]string, error) {
	if jsonPath == "" {
		jsonPath = DefaultJSONPath
	}
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	path, err := jp.ParseString(jsonPath)
	if err != nil {
		return nil, err
	}
	res := path.Get(obj)
	ret := make([]string, 0, len(res))
	for _, v := range res {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s selects a non string value: %v", jsonPath, v)
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func parseText(data []byte) ([]string, error) {
	var ret []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ret = append(ret, line)
	}
	return ret, sc.Err()
}
