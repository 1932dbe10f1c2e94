package pipe

import (
	"log/slog"

	"github.com/ib-77/ropline/pkg/rop/message"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultCapacity is the buffer size of every link unless overridden.
const DefaultCapacity = 100

// Option configures a pipeline at Build time.
type Option func(*settings)

type settings struct {
	name          string
	capacity      int
	stageCapacity map[string]int
	logger        *slog.Logger
	registerer    prometheus.Registerer
	namespace     string
	onDiscard     func(kind message.Kind, err error)
}

func defaultSettings() *settings {
	return &settings{
		name:          "pipeline",
		capacity:      DefaultCapacity,
		stageCapacity: map[string]int{},
		logger:        slog.New(slog.DiscardHandler),
		namespace:     "ropline",
	}
}

// WithName names the pipeline in logs and metric labels.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithCapacity sets the default capacity of every link.
func WithCapacity(capacity int) Option {
	return func(s *settings) {
		s.capacity = capacity
	}
}

// WithStageCapacity overrides the capacity of the link leaving the named
// stage. It takes precedence over Stage.Capacity.
func WithStageCapacity(stage string, capacity int) Option {
	return func(s *settings) {
		s.stageCapacity[stage] = capacity
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics registers the pipeline's Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(s *settings) {
		s.registerer = reg
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithOnDiscard is called for every Work or Skip message that Shutdown
// drops while draining.
func WithOnDiscard(fn func(kind message.Kind, err error)) Option {
	return func(s *settings) {
		s.onDiscard = fn
	}
}
