// Package metrics holds the Prometheus collectors shared by the embedding
// transport, the embedding cache and the development server.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// register adds collectors to reg. Collectors that are already registered are left as is,
// so calling it twice against one registry is harmless.
func register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("register metric: %w", err)
		}
	}
	return nil
}
