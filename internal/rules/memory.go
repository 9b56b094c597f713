package rules

import (
	"context"
	"sync"

	"github.com/MostProject/wslistener/internal/models"
)

// MemoryRule is an in-process rule toggle for local development
type MemoryRule struct {
	mu       sync.Mutex
	state    models.RuleState
	enables  int
	disables int
}

func NewMemoryRule() *MemoryRule {
	return &MemoryRule{state: models.RuleDisabled}
}

func (r *MemoryRule) Enable(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = models.RuleEnabled
	r.enables++
	return nil
}

func (r *MemoryRule) Disable(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = models.RuleDisabled
	r.disables++
	return nil
}

func (r *MemoryRule) State(ctx context.Context) (models.RuleState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

// Calls returns how many times Enable and Disable were called
func (r *MemoryRule) Calls() (enables, disables int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enables, r.disables
}
