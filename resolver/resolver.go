// Package resolver turns a node's bound inbound edges into the flat
// input map its handler actually reads: per-edge transforms first
// (extraction among them), then packing or spreading by label, and
// finally default substitution.
package resolver

import (
	"fmt"
	"strings"

	"github.com/dipeo/dipeo-core/domain"
)

// Binding is one inbound edge's resolved value, ready for extraction.
// Value is whatever the envelope package's Body()/Text()/JSON() returned
// for that edge's content type; resolver treats it as opaque `any` to
// avoid importing envelope (which would make every envelope consumer
// also depend on resolver).
type Binding struct {
	Label      domain.HandleLabel
	EdgeID     domain.EdgeID
	Value      any
	Transforms []domain.TransformRule
	// Spread marks an edge whose object value should be merged directly
	// into the input namespace instead of packed under its label.
	Spread bool
}

// Resolve produces the final input map for a node, given its declared
// port spec and the bindings its inbound edges delivered this epoch.
func Resolve(nodeID domain.NodeID, spec domain.HandleSpec, bindings []Binding) (map[string]any, error) {
	grouped := make(map[domain.HandleLabel][]Binding)
	for _, b := range bindings {
		grouped[b.Label] = append(grouped[b.Label], b)
	}

	out := make(map[string]any)

	for label, group := range grouped {
		values := make([]any, 0, len(group))
		for _, b := range group {
			v, err := applyTransforms(b.Value, b.Transforms)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}

		if len(group) > 0 && group[0].Spread {
			for _, v := range values {
				m, ok := v.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("resolver: node %s: spread edge on %s did not produce an object", nodeID, label)
				}
				for k, vv := range m {
					if _, exists := out[k]; exists {
						return nil, &InputCollision{Key: k, NodeID: string(nodeID)}
					}
					out[k] = vv
				}
			}
			continue
		}

		key := string(label)
		if _, exists := out[key]; exists {
			return nil, &InputCollision{Key: key, NodeID: string(nodeID)}
		}
		if len(values) == 1 {
			out[key] = values[0]
		} else {
			out[key] = values
		}
	}

	for _, port := range spec.Inputs {
		key := string(port.Label)
		if _, bound := out[key]; bound {
			continue
		}
		if !port.Required {
			continue
		}
		if port.Default != nil {
			out[key] = port.Default
			continue
		}
		return nil, &MissingRequiredInput{NodeID: string(nodeID), Label: key}
	}

	return out, nil
}

func applyTransforms(value any, rules []domain.TransformRule) (any, error) {
	v := value
	for _, r := range rules {
		var err error
		switch r.Kind {
		case domain.TransformExtract:
			v, err = extractPath(v, r.Path)
		case domain.TransformWrap:
			v = map[string]any{r.Key: v}
		case domain.TransformMap:
			v, err = applyMapping(v, r.Mapping)
		case domain.TransformTemplate:
			v, err = applyTemplate(r.Template, v)
		default:
			err = fmt.Errorf("unknown transform kind %q", r.Kind)
		}
		if err != nil {
			return nil, &TransformError{Kind: string(r.Kind), Reason: err.Error()}
		}
	}
	return v, nil
}

// extractPath walks a dotted path ("a.b.c") through nested
// map[string]any values.
func extractPath(v any, path string) (any, error) {
	if path == "" {
		return v, nil
	}
	cur := v
	for _, segment := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot extract %q: not an object at %q", path, segment)
		}
		next, ok := m[segment]
		if !ok {
			return nil, fmt.Errorf("cannot extract %q: key %q not found", path, segment)
		}
		cur = next
	}
	return cur, nil
}

// applyMapping renames keys of an object value according to mapping
// (old key -> new key). Keys not present in mapping pass through unchanged.
func applyMapping(v any, mapping map[string]string) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("map transform requires an object value, got %T", v)
	}
	out := make(map[string]any, len(m))
	for k, vv := range m {
		newKey, renamed := mapping[k]
		if renamed {
			out[newKey] = vv
		} else {
			out[k] = vv
		}
	}
	return out, nil
}

// applyTemplate renders a simple {{key}} substitution template against an
// object value. Full templating (conditionals, loops) belongs to the
// template_job node type, not the edge transform pipeline.
func applyTemplate(tmpl string, v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("template transform requires an object value, got %T", v)
	}
	out := tmpl
	for k, vv := range m {
		out = strings.ReplaceAll(out, "{{"+k+"}}", fmt.Sprintf("%v", vv))
	}
	return out, nil
}
