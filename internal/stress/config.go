package stress

import (
	"fmt"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config describes a stress run.
type Config struct {
	// Readers is the number of goroutines loading from the cell.
	Readers int `toml:"readers"`
	// Writers is the number of goroutines swapping new values into the cell.
	Writers int `toml:"writers"`
	// Iterations is the number of swaps each writer performs. Readers keep
	// loading until every writer is done.
	Iterations int `toml:"iterations"`
	// HoldLoads is how many loaded handles each reader keeps alive at once,
	// so that values outlive the swaps that displaced them.
	HoldLoads int `toml:"hold_loads"`
	// PayloadWords is the size of each value in 32 bit words.
	PayloadWords int `toml:"payload_words"`
	// Seed seeds the per goroutine generators.
	Seed uint64 `toml:"seed"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	np := runtime.GOMAXPROCS(-1)
	return Config{
		Readers:      np,
		Writers:      (np + 1) / 2,
		Iterations:   10000,
		HoldLoads:    4,
		PayloadWords: 16,
		Seed:         1,
	}
}

// LoadConfig decodes the TOML file at path over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration describes a runnable test.
func (c Config) Validate() error {
	switch {
	case c.Readers < 0:
		return fmt.Errorf("readers must not be negative: %d", c.Readers)
	case c.Writers <= 0:
		return fmt.Errorf("writers must be positive: %d", c.Writers)
	case c.Iterations <= 0:
		return fmt.Errorf("iterations must be positive: %d", c.Iterations)
	case c.HoldLoads < 0:
		return fmt.Errorf("hold_loads must not be negative: %d", c.HoldLoads)
	case c.PayloadWords <= 0:
		return fmt.Errorf("payload_words must be positive: %d", c.PayloadWords)
	}
	return nil
}
