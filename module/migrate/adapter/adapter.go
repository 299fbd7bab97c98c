package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/go-containerregistry/pkg/authn"

	"github.com/harness/harbor-migrator/module/migrate/types"
)

// Adapter is one registry side of a run.
type Adapter interface {
	GetConfig() types.RegistryConfig
	// GetKeyChain returns credentials for pulling from or pushing to this registry.
	GetKeyChain(ctx context.Context) (authn.Keychain, error)
	// GetOCIImagePath returns the image path without tag or digest.
	GetOCIImagePath(project, repository string) string
}

// Discoverer is implemented by adapters that can enumerate their content.
type Discoverer interface {
	Adapter
	ListRepositories(ctx context.Context, project string, pageSize int) ([]string, error)
	ListArtifacts(ctx context.Context, project, repository string, limit int) ([]types.ArtifactRecord, error)
}

type Factory interface {
	Create(ctx context.Context, config types.RegistryConfig) (Adapter, error)
}

var (
	mu       sync.RWMutex
	registry = map[types.RegistryType]Factory{}
)

// RegisterFactory registers one adapter factory to the registry.
func RegisterFactory(t types.RegistryType, factory Factory) error {
	if len(t) == 0 {
		return errors.New("invalid type")
	}
	if factory == nil {
		return errors.New("empty adapter factory")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exist := registry[t]; exist {
		return fmt.Errorf("adapter factory for %s already exists", t)
	}
	registry[t] = factory
	return nil
}

// GetFactory gets the adapter factory by the specified name.
func GetFactory(t types.RegistryType) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	factory, exist := registry[t]
	if !exist {
		return nil, fmt.Errorf("adapter factory for %s not found: %w", t, types.ErrUnsupportedRegistryType)
	}
	return factory, nil
}

func GetAdapter(ctx context.Context, cfg types.RegistryConfig) (Adapter, error) {
	factory, err := GetFactory(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to get adapter factory: %w", err)
	}
	adapter, err := factory.Create(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter: %w", err)
	}
	return adapter, nil
}

// GetDiscoverer returns the adapter for cfg if it supports discovery.
func GetDiscoverer(ctx context.Context, cfg types.RegistryConfig) (Discoverer, error) {
	a, err := GetAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d, ok := a.(Discoverer)
	if !ok {
		return nil, fmt.Errorf("registry type %s does not support discovery: %w", cfg.Type,
			types.ErrUnsupportedRegistryType)
	}
	return d, nil
}
