package graphvalue

import (
	"fmt"
	"time"
)

// Reserved metadata keys, attached only when Normalizer.IncludeMetadata is set.
const (
	KeyID      = "_id"
	KeyLabels  = "_labels"
	KeyType    = "_type"
	KeyStartID = "_start_id"
	KeyEndID   = "_end_id"
)

// Normalizer flattens Values into JSON-safe data. The zero value emits
// properties only.
type Normalizer struct {
	IncludeMetadata bool
}

// Normalize converts a value with the zero Normalizer.
func Normalize(raw any) any {
	return Normalizer{}.Normalize(raw)
}

// Normalize converts any raw driver value. Already-normalized input comes
// back unchanged.
func (n Normalizer) Normalize(raw any) any {
	return n.plain(Lift(raw))
}

// Record normalizes one result row into a column map.
func (n Normalizer) Record(keys []string, values []any) map[string]any {
	out := make(map[string]any, len(keys))
	for i, key := range keys {
		if i < len(values) {
			out[key] = n.Normalize(values[i])
		} else {
			out[key] = nil
		}
	}
	return out
}

func (n Normalizer) plain(v Value) any {
	switch v := v.(type) {
	case Scalar:
		return v.V
	case List:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = n.plain(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = n.plain(item)
		}
		return out
	case Node:
		return n.node(v)
	case Relationship:
		return n.relationship(v)
	case Path:
		nodes := make([]any, len(v.Nodes))
		for i, node := range v.Nodes {
			nodes[i] = n.node(Node(node))
		}
		rels := make([]any, len(v.Relationships))
		for i, rel := range v.Relationships {
			rels[i] = n.relationship(Relationship(rel))
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case Temporal:
		return temporalString(v.V)
	case Point:
		out := map[string]any{"srid": int64(v.SRID), "x": v.X, "y": v.Y}
		if v.Is3D {
			out["z"] = v.Z
		}
		return out
	default:
		panic(fmt.Sprintf("graphvalue: unhandled kind %s", v.Kind()))
	}
}

func (n Normalizer) node(v Node) map[string]any {
	out := n.properties(v.Props, 2)
	if n.IncludeMetadata {
		labels := make([]any, len(v.Labels))
		for i, l := range v.Labels {
			labels[i] = l
		}
		setReserved(out, KeyID, v.ElementId)
		setReserved(out, KeyLabels, labels)
	}
	return out
}

func (n Normalizer) relationship(v Relationship) map[string]any {
	out := n.properties(v.Props, 4)
	if n.IncludeMetadata {
		setReserved(out, KeyID, v.ElementId)
		setReserved(out, KeyType, v.Type)
		setReserved(out, KeyStartID, v.StartElementId)
		setReserved(out, KeyEndID, v.EndElementId)
	}
	return out
}

func (n Normalizer) properties(props map[string]any, extra int) map[string]any {
	out := make(map[string]any, len(props)+extra)
	for k, p := range props {
		out[k] = n.Normalize(p)
	}
	return out
}

// setReserved never overwrites a declared property.
func setReserved(m map[string]any, key string, value any) {
	if _, taken := m[key]; !taken {
		m[key] = value
	}
}

func temporalString(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
