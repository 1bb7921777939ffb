package openai

import (
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/docsight/internal/adapters/driven/provider"
)

const providerName = "openai"

// classify maps go-openai errors onto the domain error kinds.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return provider.Status(providerName, op, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return provider.Status(providerName, op, reqErr.HTTPStatusCode, reqErr.Error())
	}
	return provider.Wrap(providerName, op, err)
}
