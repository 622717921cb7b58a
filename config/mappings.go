package config

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// LinkMappings maps identifiers to URLs. In the file a value is either a
// URL string or a map of identifiers to URLs grouping one package; groups
// are flattened into the same key space.
type LinkMappings map[string]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *LinkMappings) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	flat, err := flattenMappings(raw)
	if err != nil {
		return err
	}
	*m = flat
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *LinkMappings) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	flat, err := flattenMappings(raw)
	if err != nil {
		return err
	}
	*m = flat
	return nil
}

func flattenMappings(raw map[string]any) (LinkMappings, error) {
	flat := make(LinkMappings, len(raw))
	origin := make(map[string]string, len(raw))

	set := func(key, value, from string) error {
		if prev, ok := origin[key]; ok {
			return fmt.Errorf("externalSymbolLinkMappings: %q is mapped by both %s and %s", key, prev, from)
		}
		origin[key] = from
		flat[key] = value
		return nil
	}

	// Sorted so collision messages are stable
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if err := set(key, v, fmt.Sprintf("%q", key)); err != nil {
				return nil, err
			}
		case map[string]any:
			inner := make([]string, 0, len(v))
			for k := range v {
				inner = append(inner, k)
			}
			sort.Strings(inner)
			for _, name := range inner {
				s, ok := v[name].(string)
				if !ok {
					return nil, fmt.Errorf("externalSymbolLinkMappings: %s.%s must be a URL string", key, name)
				}
				if err := set(name, s, fmt.Sprintf("group %q", key)); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("externalSymbolLinkMappings: %q must be a URL string or a map of URLs", key)
		}
	}
	return flat, nil
}
