package contentacquirer

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the content-acquirer processor component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "content-acquirer",
		Factory:     NewComponent,
		Schema:      contentAcquirerSchema,
		Type:        "processor",
		Protocol:    "nats",
		Domain:      "content",
		Description: "Topic batch content acquisition with generated fallback",
		Version:     "0.1.0",
	})
}
