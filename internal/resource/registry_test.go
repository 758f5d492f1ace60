package resource

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistry_Tables(t *testing.T) {
	r := NewRegistry()

	for _, err := range []error{
		r.RegisterElement("b-card", &ElementDef{ElementName: "b-card"}),
		r.RegisterElement("a-card", &ElementDef{ElementName: "a-card"}),
		r.RegisterAttribute("tooltip", AttributeFunc(nil)),
		r.RegisterValueConverter("upper", ConverterFunc(nil)),
	} {
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	tests := []struct {
		kind Kind
		want []string
	}{
		{KindElement, []string{"b-card", "a-card"}},
		{KindAttribute, []string{"tooltip"}},
		{KindValueConverter, []string{"upper"}},
	}
	for _, tt := range tests {
		if got := r.Names(tt.kind); !slices.Equal(got, tt.want) {
			t.Errorf("Names(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
	if r.Len() != 4 {
		t.Errorf("expected 4 resources, got %d", r.Len())
	}

	if _, ok := r.Element("a-card"); !ok {
		t.Error("expected a-card")
	}
	if _, ok := r.Attribute("tooltip"); !ok {
		t.Error("expected tooltip")
	}
	if _, ok := r.ValueConverter("lower"); ok {
		t.Error("did not expect lower")
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterElement("x", &ElementDef{ElementName: "x"}); err != nil {
		t.Fatalf("RegisterElement() failed: %v", err)
	}

	err := r.RegisterElement("x", &ElementDef{ElementName: "x"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Kind != KindElement {
		t.Errorf("expected a DuplicateError for an element, got %v", err)
	}

	// same name, different table
	if err := r.RegisterAttribute("x", AttributeFunc(nil)); err != nil {
		t.Errorf("RegisterAttribute() failed: %v", err)
	}
}

func TestRegistry_NamesIsCopy(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterElement("x", &ElementDef{ElementName: "x"}); err != nil {
		t.Fatalf("RegisterElement() failed: %v", err)
	}

	names := r.Names(KindElement)
	names[0] = "mutated"
	if got := r.Names(KindElement); !slices.Equal(got, []string{"x"}) {
		t.Errorf("Names() = %v after mutating a copy", got)
	}
}
