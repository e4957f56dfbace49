package provider

import (
	"fmt"

	"ycli/config"
	"ycli/model"
)

// NewProvider creates the backend selected by bot.APIType. An empty type
// means APITypeOpenAI.
//
// Returns an error if:
//   - renderer is nil
//   - the API type is unknown
//   - the backend constructor rejects the bot (e.g. malformed Topia key)
func NewProvider(bot config.BotConfig, renderer model.StreamRenderer, opts Options) (model.Provider, error) {
	if renderer == nil {
		return nil, fmt.Errorf("provider needs a stream renderer")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient()
	}

	apiType := APIType(bot.APIType)
	if apiType == "" {
		apiType = APITypeOpenAI
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Creating %s provider for bot %q (model=%s, base=%s)", apiType, bot.Name, bot.Model, bot.BaseURL)
	}

	switch apiType {
	case APITypeOpenAI:
		return NewOpenAIProvider(bot, renderer, opts)
	case APITypeDify:
		return NewDifyProvider(bot, renderer, opts)
	case APITypeTopia:
		return NewTopiaProvider(bot, renderer, opts)
	default:
		return nil, fmt.Errorf("unknown api_type: %s", bot.APIType)
	}
}
