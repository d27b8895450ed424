package device

import (
	"fmt"
	"strings"
)

// DefaultMinServiceUUIDLength excludes 16-bit SIG services (4 hex digits once
// normalized) so only vendor services are considered for the data endpoint.
const DefaultMinServiceUUIDLength = 5

// Endpoint is the characteristic chosen to carry printer traffic
type Endpoint struct {
	Service        Service
	Characteristic Characteristic
}

func (e *Endpoint) String() string {
	if e == nil || e.Service == nil || e.Characteristic == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s/%s", e.Service.UUID(), e.Characteristic.UUID())
}

// SupportsEndpoint reports whether char can both notify and accept writes without response
func SupportsEndpoint(char Characteristic) bool {
	if char == nil {
		return false
	}
	props := char.GetProperties()
	if props == nil {
		return false
	}
	return props.Notify() != nil && props.WriteWithoutResponse() != nil
}

// SelectEndpoint returns the first characteristic, in discovery order, that
// supports notify and write-without-response. Services whose normalized UUID
// is shorter than minServiceUUIDLen are skipped.
func SelectEndpoint(services []Service, minServiceUUIDLen int) (*Endpoint, error) {
	if len(services) == 0 {
		return nil, ErrNoGattProfile
	}

	var skipped []string
	for _, svc := range services {
		if svc == nil {
			continue
		}
		if len(NormalizeUUID(svc.UUID())) < minServiceUUIDLen {
			skipped = append(skipped, svc.UUID())
			continue
		}
		for _, char := range svc.GetCharacteristics() {
			if SupportsEndpoint(char) {
				return &Endpoint{Service: svc, Characteristic: char}, nil
			}
		}
	}

	if len(skipped) > 0 {
		return nil, fmt.Errorf("%w (skipped short services: %s)", ErrNoSuitableEndpoint, strings.Join(skipped, ", "))
	}
	return nil, ErrNoSuitableEndpoint
}
