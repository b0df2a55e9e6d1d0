package coops

// FieldType is the value type of a schema field.
type FieldType int

const (
	String FieldType = iota
	Int32
	Float64
	Complex
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Int32:
		return "int32"
	case Float64:
		return "float64"
	case Complex:
		return "complex type"
	default:
		return "unknown"
	}
}

// Field describes one element or attribute of a complex type.
type Field struct {
	// Name is the XML local name, verbatim.
	Name string
	// Aliases are other element names accepted for this field on decode.
	Aliases []string
	Type    FieldType
	// Attr marks an XML attribute rather than a child element.
	Attr bool
	// Required fields must be present. For repeated fields it means at
	// least one occurrence (minOccurs="1").
	Required bool
	// Repeated fields may occur any number of times (maxOccurs="unbounded").
	Repeated bool
	// Nillable fields may be empty or carry xsi:nil="true".
	Nillable bool
	// Schema is the nested type of a Complex field.
	Schema *Schema
}

func (f Field) names() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// Schema is an ordered list of fields, the equivalent of an XSD complexType
// with its propOrder.
type Schema struct {
	Name   string
	Fields []Field
}

// object is the untyped result of walking a schema: field name to string,
// int32, float64, *object or []*object. Absent optional fields have no key.
type object struct {
	fields map[string]any
}

func newObject() *object {
	return &object{fields: make(map[string]any)}
}

func (o *object) set(name string, v any) *object {
	o.fields[name] = v
	return o
}

func (o *object) str(name string) string {
	s, _ := o.fields[name].(string)
	return s
}

func (o *object) optStr(name string) *string {
	if s, ok := o.fields[name].(string); ok {
		return &s
	}
	return nil
}

func (o *object) i32(name string) int32 {
	i, _ := o.fields[name].(int32)
	return i
}

func (o *object) optI32(name string) *int32 {
	if i, ok := o.fields[name].(int32); ok {
		return &i
	}
	return nil
}

func (o *object) f64(name string) float64 {
	f, _ := o.fields[name].(float64)
	return f
}

func (o *object) obj(name string) *object {
	if c, ok := o.fields[name].(*object); ok {
		return c
	}
	return newObject()
}

func (o *object) list(name string) []*object {
	l, _ := o.fields[name].([]*object)
	return l
}

func setOpt[T any](o *object, name string, v *T) {
	if v != nil {
		o.fields[name] = *v
	}
}

func buildList[T any](objs []*object, build func(*object) T) []T {
	out := make([]T, 0, len(objs))
	for _, o := range objs {
		out = append(out, build(o))
	}
	return out
}

func flattenList[T any](items []T, flatten func(T) *object) []*object {
	out := make([]*object, 0, len(items))
	for _, it := range items {
		out = append(out, flatten(it))
	}
	return out
}
