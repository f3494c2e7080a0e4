package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		in   string
		want ModelRef
	}{
		{"gemini/gemini-2.0-flash-exp", ModelRef{ProviderGemini, "gemini-2.0-flash-exp"}},
		{"openrouter/openrouter/quasar-alpha", ModelRef{ProviderOpenRouter, "openrouter/quasar-alpha"}},
		{"openrouter/anthropic/claude-3.5-sonnet", ModelRef{ProviderOpenRouter, "anthropic/claude-3.5-sonnet"}},
		{"OpenAI/gpt-4o", ModelRef{ProviderOpenAI, "gpt-4o"}},
		{"mistral/mistral-large-latest", ModelRef{ProviderMistral, "mistral-large-latest"}},
		{"gpt-4o-mini", ModelRef{ProviderOpenAI, "gpt-4o-mini"}},
		{"o3-mini", ModelRef{ProviderOpenAI, "o3-mini"}},
		{" gemini-1.5-pro ", ModelRef{ProviderGemini, "gemini-1.5-pro"}},
		{"mistral-small", ModelRef{ProviderMistral, "mistral-small"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseModel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseModel_Errors(t *testing.T) {
	for _, in := range []string{"", "  ", "claude-3-opus", "acme/model", "gemini/"} {
		_, err := ParseModel(in)
		assert.ErrorIs(t, err, ErrUnknownProvider, "input %q", in)
	}
}

func TestModelRef_String(t *testing.T) {
	ref, err := ParseModel("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", ref.String())

	again, err := ParseModel(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, again)
}
