//go:build !statsview

package statsview

import (
	"bytes"
	"strings"
	"testing"
)

func TestStubLaunch(t *testing.T) {
	if Available() {
		t.Fatalf("Available: expected false without the statsview tag")
	}
	var b bytes.Buffer
	stop := Launch("localhost:0", &b)
	if stop == nil {
		t.Fatalf("Launch: expected a stop function")
	}
	stop()
	if !strings.Contains(b.String(), "-tags statsview") {
		t.Errorf("Launch: expected build hint, got %q", b.String())
	}
}
