package utils

import "testing"

func TestPtr(t *testing.T) {
	f := Ptr(0.2)
	if f == nil || *f != 0.2 {
		t.Fatalf("Ptr(0.2) = %v", f)
	}

	v := 7
	p := Ptr(v)
	*p = 8
	if v != 7 {
		t.Errorf("Ptr must copy its argument, original changed to %d", v)
	}
}
