package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassification(t *testing.T) {
	base := errors.New("connection refused")

	tests := []struct {
		name         string
		err          error
		wantRemote   bool
		wantMetadata bool
		wantInvalid  bool
	}{
		{"remote", Remote("list liked", base), true, false, false},
		{"wrapped remote", fmt.Errorf("load: %w", Remote("list liked", base)), true, false, false},
		{"metadata", &MetadataError{Op: "get movie", Status: 404, Err: base}, false, true, false},
		{"validation", ErrEmptyQuery, false, false, true},
		{"plain", base, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRemote(tt.err); got != tt.wantRemote {
				t.Errorf("IsRemote() = %v, want %v", got, tt.wantRemote)
			}
			if got := IsMetadata(tt.err); got != tt.wantMetadata {
				t.Errorf("IsMetadata() = %v, want %v", got, tt.wantMetadata)
			}
			if got := IsValidation(tt.err); got != tt.wantInvalid {
				t.Errorf("IsValidation() = %v, want %v", got, tt.wantInvalid)
			}
		})
	}
}

func TestRemote_NilPassthrough(t *testing.T) {
	if err := Remote("add like", nil); err != nil {
		t.Errorf("Remote(nil) = %v, want nil", err)
	}
}

func TestMetadataError_Message(t *testing.T) {
	err := &MetadataError{Op: "search", Status: 503, Err: errors.New("unavailable")}
	if got, want := err.Error(), "metadata search: status 503: unavailable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, err.Err) {
		t.Error("MetadataError should unwrap to its cause")
	}
}
