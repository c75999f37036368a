package crawler

import (
	"errors"
	"slices"
	"testing"
)

func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mediaType string
		want      Format
	}{
		{mediaType: "text/html", want: FormatHTML},
		{mediaType: "application/pdf", want: FormatPDF},
		{mediaType: MediaTypeDOCX, want: FormatDOCX},
		{mediaType: "image/png", want: FormatUnknown},
		{mediaType: "", want: FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			t.Parallel()
			if got := FormatOf(tt.mediaType); got != tt.want {
				t.Errorf("FormatOf(%q) = %v, want %v", tt.mediaType, got, tt.want)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	t.Run("registered formats resolve", func(t *testing.T) {
		t.Parallel()
		for _, mt := range []string{MediaTypeHTML, MediaTypePDF, MediaTypeDOCX} {
			h, err := r.Lookup(mt)
			if err != nil {
				t.Fatalf("Lookup(%q): %v", mt, err)
			}
			if h.Format() != FormatOf(mt) {
				t.Errorf("Lookup(%q) returned %v handler", mt, h.Format())
			}
		}
	})

	t.Run("unregistered format is ErrUnsupportedFormat", func(t *testing.T) {
		t.Parallel()
		_, err := r.Lookup("image/jpeg")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("partial registry", func(t *testing.T) {
		t.Parallel()
		partial := NewRegistry(NewHTMLHandler())
		if !slices.Equal(partial.Formats(), []Format{FormatHTML}) {
			t.Errorf("Formats() = %v", partial.Formats())
		}
		if _, err := partial.Lookup(MediaTypePDF); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}
