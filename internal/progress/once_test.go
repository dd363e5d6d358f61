package progress

import "testing"

func TestOnce(t *testing.T) {
	var o Once[string]

	if _, ok := o.Take(); ok {
		t.Fatal("empty slot returned a value")
	}

	o.Put("first")
	if v, ok := o.Peek(); !ok || v != "first" {
		t.Fatalf("Peek() = %q, %v", v, ok)
	}
	if v, ok := o.Take(); !ok || v != "first" {
		t.Fatalf("Take() = %q, %v", v, ok)
	}
	if v, ok := o.Take(); ok {
		t.Fatalf("second Take() = %q, want nothing", v)
	}

	o.Put("a")
	o.Put("b")
	if v, _ := o.Take(); v != "b" {
		t.Errorf("Take() = %q, want latest value", v)
	}

	o.Put("c")
	o.Clear()
	if _, ok := o.Take(); ok {
		t.Error("Take() after Clear returned a value")
	}
}

func TestOnce_CopiesAreIndependent(t *testing.T) {
	var a Once[int]
	a.Put(7)

	b := a
	if _, ok := b.Take(); !ok {
		t.Fatal("copy should carry the value")
	}
	if _, ok := a.Peek(); !ok {
		t.Error("taking from a copy emptied the original")
	}
}
