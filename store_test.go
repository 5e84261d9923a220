package relay_test

import (
	"testing"

	"github.com/fwojciec/relay"
	"github.com/stretchr/testify/assert"
)

func TestCompletionRequest_Text(t *testing.T) {
	t.Parallel()

	t.Run("joins prompt and labelled message", func(t *testing.T) {
		t.Parallel()
		req := relay.CompletionRequest{SystemPrompt: "Be terse.", UserMessage: "Hello"}
		assert.Equal(t, "Be terse.\n\nユーザー: Hello", req.Text())
	})

	t.Run("empty message is passed through", func(t *testing.T) {
		t.Parallel()
		req := relay.CompletionRequest{SystemPrompt: "p", UserMessage: ""}
		assert.Equal(t, "p\n\nユーザー: ", req.Text())
	})
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "api error 400: API key not valid", (&relay.APIError{Code: 400, Message: "API key not valid"}).Error())
	assert.Equal(t, "api error: no candidates", (&relay.APIError{Message: "no candidates"}).Error())
}
