package edge

import "github.com/syssam/saint/schema"

// Annotation is a builtin schema annotation for configuring how an edge
// is presented by the admin layer.
type Annotation struct {
	// Label overrides the humanized edge name.
	Label string

	// Columns lists the columns of the related model shown for the
	// association. The first entry is the display column used when the
	// relation is rendered inside a grid cell or a select option.
	Columns []string

	// Readonly hides the association from the edit form.
	Readonly bool
}

// Name describes the annotation name.
func (Annotation) Name() string {
	return "Edges"
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
	if ant.Label != "" {
		a.Label = ant.Label
	}
	if len(ant.Columns) > 0 {
		a.Columns = append([]string(nil), ant.Columns...)
	}
	if ant.Readonly {
		a.Readonly = true
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
