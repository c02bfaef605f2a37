package version

import "testing"

func TestString(t *testing.T) {
	if got := String(); got != "dev (unknown, unknown)" {
		t.Errorf("String() = %q", got)
	}
}
