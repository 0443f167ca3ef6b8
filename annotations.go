package mailmark

import (
	"fmt"

	"github.com/google/uuid"
)

// AnnotationPatch carries the editable fields of an annotation. Nil fields
// are left unchanged. Kind and locator are not patchable: changing what an
// annotation points at requires delete and recreate.
type AnnotationPatch struct {
	Label       *string
	UserComment *string
	FormField   *FormFieldMeta
	Hyperlink   *HyperlinkMeta
	Variable    *VariableMeta
}

// AddManual appends a manually created annotation. A fresh id is always
// assigned; any caller-provided id is ignored so ids are never reused. The
// annotation must carry metadata matching its kind, since no locator can be
// synthesized without a target element; the locator may be left zero, in
// which case renderers list the annotation but never mark it inline.
func (d *Document) AddManual(a Annotation) (Annotation, error) {
	if !a.Kind.Valid() {
		return Annotation{}, fmt.Errorf("%w: %q", ErrInvalidKind, a.Kind)
	}
	if !metadataMatchesKind(&a) {
		return Annotation{}, fmt.Errorf("%w: kind %s", ErrMissingMetadata, a.Kind)
	}

	a.ID = uuid.NewString()
	d.Annotations = append(d.Annotations, a)
	return a, nil
}

// Update patches the editable fields of the annotation with the given id.
// Metadata for a kind other than the annotation's own is rejected: that
// would amount to a kind change.
func (d *Document) Update(id string, patch AnnotationPatch) error {
	a := d.find(id)
	if a == nil {
		return fmt.Errorf("%w: %s", ErrAnnotationNotFound, id)
	}

	if patchChangesKind(a, patch) {
		return fmt.Errorf("%w: annotation %s is a %s", ErrImmutableField, id, a.Kind)
	}

	if patch.Label != nil {
		a.Label = *patch.Label
	}
	if patch.UserComment != nil {
		a.UserComment = *patch.UserComment
	}
	if patch.FormField != nil {
		a.FormField = patch.FormField
	}
	if patch.Hyperlink != nil {
		a.Hyperlink = patch.Hyperlink
	}
	if patch.Variable != nil {
		a.Variable = patch.Variable
	}
	return nil
}

// Remove deletes the annotation with the given id. Other annotations keep
// their ids and positions: identity is independent of list order.
func (d *Document) Remove(id string) error {
	for i := range d.Annotations {
		if d.Annotations[i].ID == id {
			d.Annotations = append(d.Annotations[:i], d.Annotations[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAnnotationNotFound, id)
}

// find returns a pointer to the annotation with the given id, or nil.
func (d *Document) find(id string) *Annotation {
	for i := range d.Annotations {
		if d.Annotations[i].ID == id {
			return &d.Annotations[i]
		}
	}
	return nil
}

// metadataMatchesKind reports whether the annotation carries metadata for
// its own kind.
func metadataMatchesKind(a *Annotation) bool {
	switch a.Kind {
	case KindFormField:
		return a.FormField != nil
	case KindHyperlink:
		return a.Hyperlink != nil
	case KindTemplateVariable:
		return a.Variable != nil
	}
	return false
}

// patchChangesKind reports whether the patch carries metadata belonging to a
// different kind than the annotation's.
func patchChangesKind(a *Annotation, patch AnnotationPatch) bool {
	switch a.Kind {
	case KindFormField:
		return patch.Hyperlink != nil || patch.Variable != nil
	case KindHyperlink:
		return patch.FormField != nil || patch.Variable != nil
	case KindTemplateVariable:
		return patch.FormField != nil || patch.Hyperlink != nil
	}
	return false
}
