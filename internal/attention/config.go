package attention

import "fmt"

// Config holds the economic parameters for an Engine. Immutable once the
// engine is constructed.
type Config struct {
	AttentionBank       float64 `json:"attention_bank"`
	MinSTI              int     `json:"min_sti"`
	MaxSTI              int     `json:"max_sti"`
	MaxLTI              int     `json:"max_lti"`
	DecayRate           float64 `json:"decay_rate"`
	SpreadingRate       float64 `json:"spreading_rate"`
	ForgettingThreshold int     `json:"forgetting_threshold"`
	RentRate            float64 `json:"rent_rate"`
	WageRate            float64 `json:"wage_rate"`
}

// DefaultConfig returns the economics used by the stock deployment.
func DefaultConfig() Config {
	return Config{
		AttentionBank:       1_000_000,
		MinSTI:              -32768,
		MaxSTI:              32767,
		MaxLTI:              65535,
		DecayRate:           0.95,
		SpreadingRate:       0.1,
		ForgettingThreshold: -1000,
		RentRate:            0.01,
		WageRate:            0.05,
	}
}

// Validate checks the construction-time invariants. A bad config is a
// programmer error and the only failure mode this package has; every
// operation after New is total.
func (c Config) Validate() error {
	if c.MinSTI > c.MaxSTI {
		return fmt.Errorf("min sti %d exceeds max sti %d", c.MinSTI, c.MaxSTI)
	}
	if c.MaxLTI < 0 {
		return fmt.Errorf("max lti must be non-negative, got %d", c.MaxLTI)
	}
	if err := checkRate("decay_rate", c.DecayRate); err != nil {
		return err
	}
	if err := checkRate("spreading_rate", c.SpreadingRate); err != nil {
		return err
	}
	if err := checkRate("rent_rate", c.RentRate); err != nil {
		return err
	}
	if err := checkRate("wage_rate", c.WageRate); err != nil {
		return err
	}
	return nil
}

func checkRate(name string, v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %g", name, v)
	}
	return nil
}
