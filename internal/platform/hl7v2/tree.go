package hl7v2

// Component holds the decoded subcomponents of one component.
type Component []string

// Repetition holds the components of one field instance.
type Repetition []Component

// Field is a decoded field: repetitions → components → subcomponents.
type Field []Repetition

// GenericSegment is the universal representation of any segment, known or
// not. Fields[0] is HL7 field 1; for MSH that is the field delimiter itself
// and Fields[1] holds the literal encoding characters.
type GenericSegment struct {
	Type   string  `json:"type"`
	Fields []Field `json:"fields"`
}

// SegmentType implements Segment.
func (g *GenericSegment) SegmentType() string { return g.Type }

// Generic implements Segment.
func (g *GenericSegment) Generic() *GenericSegment { return g }

// Field returns field n (1-based), or nil when the segment is shorter.
func (g *GenericSegment) Field(n int) Field {
	if g == nil || n < 1 || n > len(g.Fields) {
		return nil
	}
	return g.Fields[n-1]
}

// Value returns the first subcomponent of the first component of the
// first repetition of field n.
func (g *GenericSegment) Value(n int) string {
	return g.Field(n).Value()
}

// Sub returns subcomponent s of component c.
func (c Component) Sub(s int) string {
	if s < 1 || s > len(c) {
		return ""
	}
	return c[s-1]
}

// Value returns the first subcomponent.
func (c Component) Value() string {
	return c.Sub(1)
}

// Empty reports whether every subcomponent is empty.
func (c Component) Empty() bool {
	for _, s := range c {
		if s != "" {
			return false
		}
	}
	return true
}

// Component returns component n (1-based), or nil.
func (r Repetition) Component(n int) Component {
	if n < 1 || n > len(r) {
		return nil
	}
	return r[n-1]
}

// Value returns the first subcomponent of component n.
func (r Repetition) Value(n int) string {
	return r.Component(n).Value()
}

// Empty reports whether every component is empty.
func (r Repetition) Empty() bool {
	for _, c := range r {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// First returns the first repetition, or nil.
func (f Field) First() Repetition {
	if len(f) == 0 {
		return nil
	}
	return f[0]
}

// Value returns the first leaf of the field.
func (f Field) Value() string {
	return f.First().Value(1)
}

// Empty reports whether the field carries no data.
func (f Field) Empty() bool {
	for _, r := range f {
		if !r.Empty() {
			return false
		}
	}
	return true
}

// Repetitions returns the non-empty repetitions.
func (f Field) Repetitions() []Repetition {
	var out []Repetition
	for _, r := range f {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

// leafField builds a single-leaf field.
func leafField(v string) Field {
	return Field{Repetition{Component{v}}}
}

// componentsField builds a field with one repetition of plain components.
func componentsField(values ...string) Field {
	rep := make(Repetition, len(values))
	for i, v := range values {
		rep[i] = Component{v}
	}
	return Field{rep}
}
