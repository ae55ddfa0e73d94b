package schema

// Annotation is used to attach arbitrary metadata to the schema objects.
// The admin layer reads the annotations it knows (field.Annotation,
// edge.Annotation) and ignores the rest.
type Annotation interface {
	// Name defines the name of the annotation to be retrieved by the codegen.
	Name() string
}

// Merger wraps the single Merge function allows custom annotation to provide
// an implementation for merging 2 or more annotations from the same type.
//
// A common use case is where the same Annotation type is defined both in
// mixin.Schema and user schema.
type Merger interface {
	Merge(Annotation) Annotation
}

// CommentAnnotation is a builtin schema annotation for
// configuring the schema's comment. The admin layer uses it as the
// controller description on the dashboard.
type CommentAnnotation struct {
	Text string // Comment text.
}

// Name implements the Annotation interface.
func (*CommentAnnotation) Name() string {
	return "Comment"
}

// Comment is a builtin schema annotation for
// configuring the schema's comment.
func Comment(text string) *CommentAnnotation {
	return &CommentAnnotation{
		Text: text,
	}
}

// Merge adds an annotation to the map. An existing annotation with the
// same name absorbs it when it implements Merger, otherwise it is replaced.
func Merge(annotations map[string]any, an Annotation) {
	curr, ok := annotations[an.Name()]
	if !ok {
		annotations[an.Name()] = an
		return
	}
	if m, ok := curr.(Merger); ok {
		annotations[an.Name()] = m.Merge(an)
		return
	}
	annotations[an.Name()] = an
}
