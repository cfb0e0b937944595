package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Struct(t *testing.T) {
	readableFile := filepath.Join(t.TempDir(), "page.html.tmpl")
	require.NoError(t, os.WriteFile(readableFile, []byte("<html></html>"), 0644))

	type question struct {
		Question string `json:"question" validate:"notblank"`
	}

	tests := []struct {
		name              string
		input             any
		wantErrorContains string
	}{
		{
			name:  "non-blank question is valid",
			input: question{Question: "What is a pointer?"},
		},
		{
			name:              "empty question is blank",
			input:             question{Question: ""},
			wantErrorContains: "question must not be blank",
		},
		{
			name:              "whitespace-only question is blank",
			input:             question{Question: " \n\t "},
			wantErrorContains: "question must not be blank",
		},
		{
			name:  "existing page template file is valid",
			input: TemplatesConfig{PageTemplate: readableFile},
		},
		{
			name:              "directory is not a readable file",
			input:             TemplatesConfig{PageTemplate: t.TempDir()},
			wantErrorContains: "must be an existing and readable file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewValidator()
			require.NoError(t, err)

			err = v.Struct(tt.input)
			if tt.wantErrorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrorContains)
		})
	}
}
