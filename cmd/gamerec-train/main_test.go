package main

import (
	"testing"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/artifact/local"
)

func TestSaveTargets(t *testing.T) {
	primary, err := local.New(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	fallback, err := local.New(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	tests := []struct {
		name    string
		target  string
		noFB    bool
		want    int
		wantErr bool
	}{
		{"primary", targetPrimary, false, 1, false},
		{"fallback", targetFallback, false, 1, false},
		{"both", targetBoth, false, 2, false},
		{"both without fallback", targetBoth, true, 1, false},
		{"fallback missing", targetFallback, true, 0, true},
		{"unknown", "s3", false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fb artifact.Store = fallback
			if tt.noFB {
				fb = nil
			}
			targets, err := saveTargets(tt.target, primary, fb)
			got := len(targets)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d targets, want %d", got, tt.want)
			}
		})
	}
}
