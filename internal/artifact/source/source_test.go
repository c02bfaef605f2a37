package source

import (
	"context"
	"strings"
	"testing"

	"github.com/kailas-cloud/gamerec/internal/artifact/gcs"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"local ok", Config{Driver: DriverLocal, Local: LocalConfig{Dir: "/tmp/models"}}, false},
		{"local no dir", Config{Driver: DriverLocal}, true},
		{"gcs ok", Config{Driver: DriverGCS, GCS: gcs.Config{Bucket: "models"}}, false},
		{"gcs no bucket", Config{Driver: DriverGCS}, true},
		{"redis no addrs", Config{Driver: DriverRedis}, true},
		{"unknown", Config{Driver: "s3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpen_Local(t *testing.T) {
	dir := t.TempDir()
	s, closeFn, err := Open(context.Background(), Config{Driver: DriverLocal, Local: LocalConfig{Dir: dir}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()
	if !strings.HasSuffix(s.Describe(), dir) {
		t.Errorf("unexpected location %q", s.Describe())
	}
}

func TestOpen_Disabled(t *testing.T) {
	s, closeFn, err := Open(context.Background(), Config{})
	if err != nil || s != nil || closeFn == nil {
		t.Fatalf("expected nil store and no-op close, got %v, %v", s, err)
	}
	closeFn()
}
