package gym

import (
	"context"
	"fmt"
	"sync"
)

// MemoryCatalog is an in-process catalog for local development (STORE_DRIVER=memory).
type MemoryCatalog struct {
	mu       sync.RWMutex
	gyms     map[string]Gym
	packages map[string]Package
	variants map[string]Variant
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		gyms:     map[string]Gym{},
		packages: map[string]Package{},
		variants: map[string]Variant{},
	}
}

func (m *MemoryCatalog) PutGym(g Gym) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gyms[g.ID] = g
}

func (m *MemoryCatalog) PutPackage(p Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.GymID+"/"+p.ID] = p
}

func (m *MemoryCatalog) PutVariant(gymID string, v Variant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[gymID+"/"+v.PackageID+"/"+v.ID] = v
}

func (m *MemoryCatalog) GetGym(_ context.Context, gymID string) (*Gym, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gyms[gymID]
	if !ok {
		return nil, fmt.Errorf("gym %s: %w", gymID, ErrNotFound)
	}
	return &g, nil
}

func (m *MemoryCatalog) GetPackage(_ context.Context, gymID, packageID string) (*Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packages[gymID+"/"+packageID]
	if !ok {
		return nil, fmt.Errorf("package %s: %w", packageID, ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryCatalog) GetVariant(_ context.Context, gymID, packageID, variantID string) (*Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.variants[gymID+"/"+packageID+"/"+variantID]
	if !ok {
		return nil, fmt.Errorf("variant %s: %w", variantID, ErrNotFound)
	}
	return &v, nil
}
