package capabilities

import "testing"

func TestNewRegistryLoadsDeclarations(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"get_pdf_related_data", "get_pdf_by_content", "summarize_pdf", "query_pdf"}
	caps := r.List()
	if len(caps) != len(want) {
		t.Fatalf("expected %d capabilities, got %d", len(want), len(caps))
	}
	for i, name := range want {
		if caps[i].Name != name {
			t.Errorf("capability %d: expected %q, got %q", i, name, caps[i].Name)
		}
		if r.Get(name) == nil {
			t.Errorf("Get(%q) returned nil", name)
		}
	}
}

func TestDefinitionsWireFormat(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs := r.Definitions()
	if len(defs) != len(r.List()) {
		t.Fatalf("expected one definition per capability")
	}
	for _, def := range defs {
		if def.Type != "function" {
			t.Errorf("%s: expected function type, got %q", def.Function.Name, def.Type)
		}
		if def.Function.Description == "" {
			t.Errorf("%s: missing description", def.Function.Name)
		}
		params, ok := def.Function.Parameters.(map[string]interface{})
		if !ok {
			t.Fatalf("%s: parameters are not a schema object", def.Function.Name)
		}
		if params["type"] != "object" {
			t.Errorf("%s: schema root must be an object", def.Function.Name)
		}
	}
}
