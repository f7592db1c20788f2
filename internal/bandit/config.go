package bandit

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates invalid bandit configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Algorithm selects the arm-selection strategy.
type Algorithm string

const (
	// EpsilonGreedy explores uniformly at random with a fixed
	// probability and exploits the best estimate otherwise.
	EpsilonGreedy Algorithm = "epsilon_greedy"

	// UCB adds an uncertainty bonus that shrinks with observations;
	// arms below the observation floor are force-explored.
	UCB Algorithm = "ucb"

	// Thompson samples each arm's Beta posterior and picks the highest
	// draw. Exploration anneals as evidence accumulates without a
	// tunable schedule, which is why it is the default.
	Thompson Algorithm = "thompson"

	// EXP3 uses exponential weighting with a uniform exploration
	// floor, robust in adversarial reward settings.
	EXP3 Algorithm = "exp3"
)

// Config holds bandit configuration.
type Config struct {
	// Algorithm is the selection strategy. Default: thompson.
	Algorithm Algorithm `koanf:"algorithm"`

	// ExplorationRate is epsilon for epsilon-greedy.
	// Typical range: 0.05-0.3. Default: 0.1.
	ExplorationRate float64 `koanf:"exploration_rate"`

	// UCBConstant scales the UCB uncertainty bonus.
	// Higher values = more exploration. Default: 2.0.
	UCBConstant float64 `koanf:"ucb_constant"`

	// MinPulls is the observation floor below which UCB force-explores
	// an arm. Default: 3.
	MinPulls int `koanf:"min_pulls"`

	// Gamma is the EXP3 exploration floor. Typical: 0.05-0.2.
	// Default: 0.1.
	Gamma float64 `koanf:"gamma"`

	// LearningRate is the step size for the online regression on
	// contextual weights. Default: 0.01.
	LearningRate float64 `koanf:"learning_rate"`

	// WindowSize bounds the per-arm sliding reward window.
	// Default: 20.
	WindowSize int `koanf:"window_size"`

	// ContextDim is the number of context features folded into the
	// contextual score. Default: 5 (the feature.Snapshot context).
	ContextDim int `koanf:"context_dim"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Algorithm:       Thompson,
		ExplorationRate: 0.1,
		UCBConstant:     2.0,
		MinPulls:        3,
		Gamma:           0.1,
		LearningRate:    0.01,
		WindowSize:      20,
		ContextDim:      5,
	}
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Algorithm == "" {
		c.Algorithm = def.Algorithm
	}
	if c.ExplorationRate == 0 {
		c.ExplorationRate = def.ExplorationRate
	}
	if c.UCBConstant == 0 {
		c.UCBConstant = def.UCBConstant
	}
	if c.MinPulls == 0 {
		c.MinPulls = def.MinPulls
	}
	if c.Gamma == 0 {
		c.Gamma = def.Gamma
	}
	if c.LearningRate == 0 {
		c.LearningRate = def.LearningRate
	}
	if c.WindowSize == 0 {
		c.WindowSize = def.WindowSize
	}
	if c.ContextDim == 0 {
		c.ContextDim = def.ContextDim
	}
}

// Validate validates the configuration. An unknown algorithm is a
// fatal configuration error, caught at construction.
func (c Config) Validate() error {
	switch c.Algorithm {
	case EpsilonGreedy, UCB, Thompson, EXP3:
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Algorithm)
	}
	if c.ExplorationRate < 0 || c.ExplorationRate > 1 {
		return fmt.Errorf("%w: exploration rate must be in [0,1], got %v", ErrInvalidConfig, c.ExplorationRate)
	}
	if c.Gamma <= 0 || c.Gamma > 1 {
		return fmt.Errorf("%w: gamma must be in (0,1], got %v", ErrInvalidConfig, c.Gamma)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive, got %v", ErrInvalidConfig, c.LearningRate)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("%w: window size must be at least 1, got %d", ErrInvalidConfig, c.WindowSize)
	}
	if c.ContextDim < 0 {
		return fmt.Errorf("%w: context dim cannot be negative, got %d", ErrInvalidConfig, c.ContextDim)
	}
	return nil
}
