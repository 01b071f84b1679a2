package consul

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

func NewClient(address string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = address

	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// GetServiceAddress resolves a healthy instance of the named service.
func GetServiceAddress(client *consulapi.Client, serviceName string) (string, int, error) {
	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to query consul for %q: %w", serviceName, err)
	}
	if len(services) == 0 {
		return "", 0, fmt.Errorf("no healthy instances of %q registered", serviceName)
	}

	svc := services[0].Service
	address := svc.Address
	if address == "" {
		address = services[0].Node.Address
	}
	return address, svc.Port, nil
}
