package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultServiceName    = "banklink"
	DefaultProcessor      = "dwolla"
	DefaultCustomerType   = "personal"
	DefaultPublicTokenTTL = 30 * time.Minute
)

type Config struct {
	ServiceName    string        `koanf:"service_name" mapstructure:"service_name"`
	Processor      string        `koanf:"processor" mapstructure:"processor"`
	CustomerType   string        `koanf:"customer_type" mapstructure:"customer_type"`
	PublicTokenTTL time.Duration `koanf:"public_token_ttl" mapstructure:"public_token_ttl"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    DefaultServiceName,
		Processor:      DefaultProcessor,
		CustomerType:   DefaultCustomerType,
		PublicTokenTTL: DefaultPublicTokenTTL,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Processor) == "" {
		return fmt.Errorf("core: processor is required")
	}
	if strings.TrimSpace(c.CustomerType) == "" {
		return fmt.Errorf("core: customer_type is required")
	}
	if c.PublicTokenTTL <= 0 {
		return fmt.Errorf("core: public_token_ttl must be positive")
	}
	return nil
}
