package field

import "github.com/syssam/saint/schema"

// Annotation is a builtin schema annotation for configuring how a field
// is presented by the admin layer.
//
//	field.Text("content").
//		Annotations(field.Annotation{Type: "rte", Label: "Body"})
type Annotation struct {
	// Type overrides the admin column type that is otherwise derived from
	// the field type. For example "rte", "image" or "password".
	Type string

	// Label overrides the humanized field name shown in grids and forms.
	Label string
}

// Name describes the annotation name.
func (Annotation) Name() string {
	return "Fields"
}

// Merge implements the schema.Merger interface.
func (a Annotation) Merge(other schema.Annotation) schema.Annotation {
	var ant Annotation
	switch other := other.(type) {
	case Annotation:
		ant = other
	case *Annotation:
		if other != nil {
			ant = *other
		}
	default:
		return a
	}
	if ant.Type != "" {
		a.Type = ant.Type
	}
	if ant.Label != "" {
		a.Label = ant.Label
	}
	return a
}

// AnnotationOf returns the merged admin annotation of the descriptor.
func AnnotationOf(d *Descriptor) Annotation {
	var a Annotation
	for _, ant := range d.Annotations {
		a = a.Merge(ant).(Annotation)
	}
	return a
}

var (
	_ schema.Annotation = (*Annotation)(nil)
	_ schema.Merger     = (*Annotation)(nil)
)
