package versioning

import (
	"context"
	"testing"
)

func TestVersion_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		version Version
		want    bool
	}{
		{
			name:    "current is valid",
			version: Current,
			want:    true,
		},
		{
			name:    "compatible is valid",
			version: Compatible,
			want:    true,
		},
		{
			name:    "zero is not valid",
			version: 0,
			want:    false,
		},
		{
			name:    "two versions back is not valid",
			version: Current - 2,
			want:    false,
		},
		{
			name:    "next version is not valid",
			version: Current + 1,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.version.IsValid(); got != tt.want {
				t.Errorf("Version.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServed(t *testing.T) {
	served := Served()
	if len(served) != 2 || served[0] != V8 || served[1] != V7 {
		t.Errorf("Served() = %v, want [8 7]", served)
	}
}

func TestContextWithVersion(t *testing.T) {
	ctx := ContextWithVersion(context.Background(), Compatible)

	version, ok := VersionFromContext(ctx)
	if !ok {
		t.Error("VersionFromContext() returned ok = false, expected true")
	}
	if version != Compatible {
		t.Errorf("VersionFromContext() = %v, want %v", version, Compatible)
	}
}

func TestVersionFromContext_NotSet(t *testing.T) {
	version, ok := VersionFromContext(context.Background())
	if ok {
		t.Error("VersionFromContext() returned ok = true, expected false")
	}
	if version != 0 {
		t.Errorf("VersionFromContext() = %v, want 0", version)
	}
}
