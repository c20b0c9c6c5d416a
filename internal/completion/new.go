package completion

import (
	"fmt"
	"log/slog"
	"strings"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGateway   = "gateway"
	ProviderScripted  = "scripted"
)

// Options select and configure a provider.
type Options struct {
	Provider   string
	GatewayURL string
	BaseURL    string
	MaxTokens  int64
	Retry      RetryPolicy

	// Script holds the canned replies of the scripted provider.
	Script []string
}

// New builds the configured provider wrapped in its retry policy.
func New(opts Options, logger *slog.Logger) (Completer, error) {
	var c Completer
	switch strings.ToLower(opts.Provider) {
	case ProviderOpenAI, "":
		var ro []openaioption.RequestOption
		if opts.BaseURL != "" {
			ro = append(ro, openaioption.WithBaseURL(opts.BaseURL))
		}
		c = NewOpenAI(opts.MaxTokens, ro...)
	case ProviderAnthropic:
		var ro []anthropicoption.RequestOption
		if opts.BaseURL != "" {
			ro = append(ro, anthropicoption.WithBaseURL(opts.BaseURL))
		}
		c = NewAnthropic(opts.MaxTokens, ro...)
	case ProviderGateway:
		c = NewGateway(opts.GatewayURL)
	case ProviderScripted:
		c = NewScripted(opts.Script...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
	return WithRetry(c, opts.Retry, logger), nil
}
