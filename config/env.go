package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment overrides applied by ApplyEnv.
const (
	EnvRNGSeed   = "SIMCORE_RNG_SEED"
	EnvJournalDB = "SIMCORE_JOURNAL_DB"
	EnvLogLevel  = "SIMCORE_LOG_LEVEL"
)

// ApplyEnv overrides the seed, journal database and log level from the
// process environment, falling back to the given .env files. Missing files
// are skipped; the process environment wins over any file, and earlier files
// win over later ones.
func (c *Config) ApplyEnv(files ...string) error {
	dotenv := map[string]string{}
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
		for k, v := range vars {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	if v, ok := lookup(EnvRNGSeed); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRNGSeed, err)
		}
		c.Backtest.RNGSeed = seed
	}
	if v, ok := lookup(EnvJournalDB); ok {
		c.Journal.Type = "sqlite"
		c.Journal.DBPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	return nil
}
