package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/model"
)

func TestText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		max     int
		wantErr string
	}{
		{name: "empty is valid", text: ""},
		{name: "plain text", text: "The company shall indemnify against all claims."},
		{name: "unicode", text: "La empresa indemnizará, 条款"},
		{name: "invalid utf8", text: "abc\xff", wantErr: "UTF-8"},
		{name: "nul byte", text: "abc\x00def", wantErr: "NUL"},
		{name: "too large", text: strings.Repeat("a", 11), max: 10, wantErr: "limit is 10"},
		{name: "at limit", text: strings.Repeat("a", 10), max: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Text(tt.text, tt.max)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type sampleRequest struct {
	Text     string `validate:"required_without=URL"`
	URL      string `validate:"omitempty,http_url"`
	Language string `validate:"omitempty,max=35"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sampleRequest{Text: "x"}))
	assert.NoError(t, Struct(sampleRequest{URL: "https://example.com/terms"}))

	err := Struct(sampleRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
	assert.Contains(t, err.Error(), "text is required when url is empty")

	err = Struct(sampleRequest{URL: "not a url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url must be an absolute http(s) URL")
}
