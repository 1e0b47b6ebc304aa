package lang

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassifyRegisteredExtensions(t *testing.T) {
	t.Parallel()

	logger := discard()
	for _, l := range All {
		for _, ext := range Extensions(l) {
			assert.Equal(t, l, Classify("pkg/file."+ext, logger), "extension %q", ext)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	t.Parallel()

	logger := discard()
	assert.Equal(t, Rust, Classify("lib.RS", logger))
	assert.Equal(t, C, Classify("main.CPP", logger))
	assert.Equal(t, Python, Classify("script.Py", logger))
	assert.Equal(t, Java, Classify("App.JAVA", logger))
}

func TestClassifyDefaultsToFirstLanguage(t *testing.T) {
	t.Parallel()

	logger := discard()

	// Unknown extension and missing extension both fall back to the
	// first declared language, never an error or empty value.
	assert.Equal(t, All[0], Classify("data.zig", logger))
	assert.Equal(t, All[0], Classify("Makefile", logger))
	assert.Equal(t, All[0], Classify("", logger))
}

func TestNameCoversAllLanguages(t *testing.T) {
	t.Parallel()

	for _, l := range All {
		assert.NotEqual(t, "Unknown", l.Name())
		assert.NotEmpty(t, l.Name())
	}
}
