// Package graphvalue converts driver values (nodes, relationships, paths,
// temporal and spatial types, nested containers) into plain maps, slices and
// scalars that encode cleanly to JSON.
//
// Raw values are first lifted into the closed Value variant set, then
// flattened by a Normalizer. Adding a new graph-native kind means adding a
// Kind, a Value type and a case in Normalizer.plain.
package graphvalue

import (
	"reflect"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Kind tags a Value.
type Kind uint8

const (
	KindScalar Kind = iota
	KindList
	KindMap
	KindNode
	KindRelationship
	KindPath
	KindTemporal
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindNode:
		return "node"
	case KindRelationship:
		return "relationship"
	case KindPath:
		return "path"
	case KindTemporal:
		return "temporal"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Value is implemented only by the types in this package.
type Value interface {
	Kind() Kind
	sealed()
}

// Scalar holds nil, bool, numbers, strings and byte slices.
type Scalar struct{ V any }

// List is an ordered sequence.
type List []Value

// Map is a string-keyed mapping.
type Map map[string]Value

// Node is a graph node.
type Node dbtype.Node

// Relationship is a graph relationship.
type Relationship dbtype.Relationship

// Path is an alternating node/relationship traversal.
type Path dbtype.Path

// Temporal holds a date, time, datetime or duration.
type Temporal struct{ V any }

// Point holds a 2D or 3D spatial point.
type Point struct {
	SRID    uint32
	X, Y, Z float64
	Is3D    bool
}

func (Scalar) Kind() Kind       { return KindScalar }
func (List) Kind() Kind         { return KindList }
func (Map) Kind() Kind          { return KindMap }
func (Node) Kind() Kind         { return KindNode }
func (Relationship) Kind() Kind { return KindRelationship }
func (Path) Kind() Kind         { return KindPath }
func (Temporal) Kind() Kind     { return KindTemporal }
func (Point) Kind() Kind        { return KindPoint }

func (Scalar) sealed()       {}
func (List) sealed()         {}
func (Map) sealed()          {}
func (Node) sealed()         {}
func (Relationship) sealed() {}
func (Path) sealed()         {}
func (Temporal) sealed()     {}
func (Point) sealed()        {}

// Lift classifies a raw driver value.
func Lift(raw any) Value {
	switch v := raw.(type) {
	case nil, bool, string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return Scalar{V: v}
	case Value:
		return v
	case dbtype.Node:
		return Node(v)
	case *dbtype.Node:
		if v == nil {
			return Scalar{}
		}
		return Node(*v)
	case dbtype.Relationship:
		return Relationship(v)
	case *dbtype.Relationship:
		if v == nil {
			return Scalar{}
		}
		return Relationship(*v)
	case dbtype.Path:
		return Path(v)
	case *dbtype.Path:
		if v == nil {
			return Scalar{}
		}
		return Path(*v)
	case time.Time, dbtype.Date, dbtype.LocalTime, dbtype.LocalDateTime, dbtype.Time, dbtype.Duration:
		return Temporal{V: v}
	case dbtype.Point2D:
		return Point{SRID: v.SpatialRefId, X: v.X, Y: v.Y}
	case dbtype.Point3D:
		return Point{SRID: v.SpatialRefId, X: v.X, Y: v.Y, Z: v.Z, Is3D: true}
	case []any:
		list := make(List, len(v))
		for i, item := range v {
			list[i] = Lift(item)
		}
		return list
	case map[string]any:
		m := make(Map, len(v))
		for k, item := range v {
			m[k] = Lift(item)
		}
		return m
	}
	return liftReflect(raw)
}

// liftReflect handles typed containers such as []string or map[string]int64.
func liftReflect(raw any) Value {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make(List, rv.Len())
		for i := range list {
			list[i] = Lift(rv.Index(i).Interface())
		}
		return list
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Scalar{V: raw}
		}
		m := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = Lift(iter.Value().Interface())
		}
		return m
	case reflect.Pointer:
		if rv.IsNil() {
			return Scalar{}
		}
		return Lift(rv.Elem().Interface())
	}
	return Scalar{V: raw}
}
