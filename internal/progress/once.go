package progress

// Once is a one-shot slot. A value stored with Put is returned by exactly one
// subsequent Take; every later Take reports false until the next Put.
//
// Once is a value type so a Session can be copied freely between
// transitions without sharing the slot.
type Once[T any] struct {
	value T
	set   bool
}

// Put stores v, replacing any value not yet taken.
func (o *Once[T]) Put(v T) {
	o.value = v
	o.set = true
}

// Take returns the stored value and empties the slot.
func (o *Once[T]) Take() (T, bool) {
	v, ok := o.value, o.set
	o.Clear()
	return v, ok
}

// Peek returns the stored value without consuming it.
func (o Once[T]) Peek() (T, bool) {
	return o.value, o.set
}

// Clear discards any stored value.
func (o *Once[T]) Clear() {
	var zero T
	o.value = zero
	o.set = false
}
