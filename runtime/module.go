package runtime

import (
	"context"
	"sort"

	"github.com/wippyai/ascmem/engine"
)

type Module struct {
	wazeroModule *engine.WazeroModule
}

// HasRuntime reports whether the guest exports __new, __pin, __unpin and __collect.
func (m *Module) HasRuntime() bool {
	return m.wazeroModule.HasRuntime()
}

func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	wazeroInstance, err := m.wazeroModule.InstantiateWithConfig(ctx, &engine.InstanceConfig{})
	if err != nil {
		return nil, err
	}

	return &Instance{wazeroInstance: wazeroInstance}, nil
}

type Export struct {
	Name string
}

// Exports lists exported functions sorted by name.
func (m *Module) Exports() []Export {
	names := m.wazeroModule.ExportNames()
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	exports := make([]Export, len(names))
	for i, name := range names {
		exports[i] = Export{Name: name}
	}
	return exports
}
