package config

import (
	"fmt"
	"sync"
)

// CaptionPreference stores the cross-session caption preference in the config file.  The in-memory config is updated
// first so a write that fails to reach disk still applies for the rest of the process.
type CaptionPreference struct {
	mu      sync.Mutex
	cfg     *Config
	persist func(func(*Config)) error
}

// NewCaptionPreference creates a caption preference store over the loaded config
func NewCaptionPreference(cfg *Config) *CaptionPreference {
	return &CaptionPreference{
		cfg:     cfg,
		persist: UpdateConfig,
	}
}

// CaptionsEnabled returns the stored preference
func (p *CaptionPreference) CaptionsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Captions.CaptionsEnabled()
}

// SetCaptionsEnabled stores the preference and writes it back to the config file
func (p *CaptionPreference) SetCaptionsEnabled(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cfg.Captions.Enabled = &enabled
	if err := p.persist(func(c *Config) {
		c.Captions.Enabled = &enabled
	}); err != nil {
		return fmt.Errorf("failed to persist caption preference: %w", err)
	}
	return nil
}
