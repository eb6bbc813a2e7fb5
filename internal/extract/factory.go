package extract

import (
	"fmt"

	"doklado/internal/config"
	"doklado/internal/port"
)

// ProviderFactory is a function that creates a Completer from a tier config.
type ProviderFactory func(cfg *config.TierConfig) (port.Completer, error)

// registry of completer provider factories, populated explicitly via
// RegisterProvider during startup wiring.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a completer provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewCompleter creates a Completer from a tier config using the registered factory.
func NewCompleter(cfg *config.TierConfig) (port.Completer, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
