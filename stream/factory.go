package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/errcode"
)

// Factory builds a concrete Adapter from a stream configuration.
//
// Registration-by-name is grounded on the teacher's transport registry in
// services/bridge/bridge.go (RegisterTransport/newTransport): a
// mutex-guarded map from a string tag to a constructor, looked up once at
// construction time.
type Factory func(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = map[config.StreamType]Factory{}
)

// RegisterAdapter makes a variant available to New under the given type
// tag. Called from each variant's init().
func RegisterAdapter(t config.StreamType, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = f
}

// New dispatches cfg.TypeConfig.Type to the registered constructor
// (spec.md §4.4 add_stream / §7 ConfigurationInvalid). An empty type tag
// (type_config omitted) is treated as None.
func New(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error) {
	t := cfg.TypeConfig.Type
	if t == "" {
		t = config.TypeNone
	}
	registryMu.RLock()
	f, ok := registry[t]
	registryMu.RUnlock()
	if !ok {
		return nil, &errcode.E{
			C:   errcode.Unsupported,
			Op:  "stream.New",
			Msg: fmt.Sprintf("no adapter registered for type %q", cfg.TypeConfig.Type),
		}
	}
	return f(cfg, tick, log)
}
