package ibis

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes the node as an object with keys in insertion order.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(n.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON writes {"typ":..,"min":..,"max":..} with null for unset
// corners.
func (t Triple[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range Corners {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(c.String()))
		buf.WriteByte(':')
		if !t.set[c] {
			buf.WriteString("null")
			continue
		}
		vb, err := json.Marshal(t.vals[c])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type matrixJSON struct {
	Pins []string    `json:"pins"`
	Rows [][]float64 `json:"rows"`
}

func (m *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(matrixJSON{Pins: m.Pins, Rows: m.Rows()})
}

type pathItemJSON struct {
	Kind string     `json:"kind"`
	Name string     `json:"name,omitempty"`
	Len  *float64   `json:"len,omitempty"`
	L    *float64   `json:"l,omitempty"`
	R    *float64   `json:"r,omitempty"`
	C    *float64   `json:"c,omitempty"`
	Fork []PathItem `json:"fork,omitempty"`
}

func (p PathItem) MarshalJSON() ([]byte, error) {
	out := pathItemJSON{Kind: p.Kind.String(), Name: p.Name, Fork: p.Fork}
	if p.Kind == PathStub {
		out.Len, out.L, out.R, out.C = &p.Len, &p.L, &p.R, &p.C
	}
	return json.Marshal(out)
}

func (r Ramp) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]float64{"dv": r.DV, "dt": r.DT})
}

// MarshalYAML encodes the node as a mapping with keys in insertion order.
func (n *Node) MarshalYAML() (any, error) {
	return toYAML(n)
}

func toYAML(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *Node:
		if v == nil {
			return toYAML(nil)
		}
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, k := range v.keys {
			val, err := toYAML(v.vals[i])
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, val)
		}
		return m, nil
	case []any:
		s := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range v {
			val, err := toYAML(e)
			if err != nil {
				return nil, err
			}
			s.Content = append(s.Content, val)
		}
		return s, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: FormatFloat(v)}, nil
	}
	// Remaining value types go through their JSON form, which yaml.v3
	// reads as a flow mapping or sequence.
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		return doc.Content[0], nil
	}
	return &doc, nil
}
