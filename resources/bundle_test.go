package resources

import (
	"testing"

	"github.com/vajain-rhods/openvino-model-server/api"
)

func TestMap_LookupNotFound(t *testing.T) {
	m := NewMap()
	_, err := m.Lookup("missing")
	if err == nil {
		t.Fatal("expected an error for an unregistered node")
	}
	se, ok := err.(*api.StatusError)
	if !ok {
		t.Fatalf("error is %T, want *api.StatusError", err)
	}
	if se.Kind != api.NotFound {
		t.Errorf("Kind = %v, want NotFound", se.Kind)
	}
}

func TestMap_SetThenLookup(t *testing.T) {
	m := NewMap()
	b := Bundle{Notifier: func() {}}
	m.Set("n", b)

	got, err := m.Lookup("n")
	if err != nil {
		t.Fatal(err)
	}
	if got.Notifier == nil {
		t.Error("expected the registered bundle's notifier to survive Lookup")
	}
}

func TestMap_Delete(t *testing.T) {
	m := NewMap()
	m.Set("n", Bundle{})
	m.Delete("n")

	if _, err := m.Lookup("n"); err == nil {
		t.Fatal("expected lookup to fail after Delete")
	}
}
