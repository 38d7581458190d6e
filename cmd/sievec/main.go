// sieve/cmd/sievec/main.go

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"sieve/pkg/compiler"
	"sieve/pkg/logging"
	"sieve/pkg/store"
	"sieve/pkg/validator"
)

// Config represents the application configuration
type Config struct {
	FiltersFile     string
	ActionsFile     string
	TeamFiltersFile string
	OutputFile      string
	LogLevel        string
	LogDestination  string
	UseRedis        bool
	RedisAddress    string
	RedisPassword   string
	RedisDB         int
	TeamID          int64
	CachePrograms   bool
}

func main() {
	if err := run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Compilation failed")
	}
}

func run(args []string) error {
	config, err := parseConfig(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := logging.ConfigureLogger(config.LogLevel, config.LogDestination); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	filtersData, err := os.ReadFile(config.FiltersFile)
	if err != nil {
		return fmt.Errorf("failed to read filters file: %w", err)
	}

	spec, err := compiler.Parse(filtersData)
	if err != nil {
		logging.LogError(logging.Logger, logging.NewError(logging.ErrorTypeParse, "invalid filter config", err, nil))
		return err
	}
	if err := validator.ValidateSpec(spec); err != nil {
		return err
	}

	var st store.Store
	if config.UseRedis {
		redisStore, err := store.NewRedisStore(config.RedisAddress, config.RedisPassword, config.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to store: %w", err)
		}
		st = redisStore
	}

	actions, err := resolveActions(config, spec, st)
	if err != nil {
		return err
	}

	testFilters, err := resolveTestAccountFilters(config, spec, st)
	if err != nil {
		return err
	}

	program, err := compiler.Compile(spec, actions, testFilters)
	if err != nil {
		logging.LogError(logging.Logger, logging.NewError(logging.ErrorTypeCompile, "compilation failed", err, nil))
		return err
	}

	if err := compiler.WriteProgramToFile(config.OutputFile, program); err != nil {
		return err
	}

	if st != nil && config.CachePrograms {
		digest := sha256.Sum256(filtersData)
		key := hex.EncodeToString(digest[:])
		if err := st.SetProgram(key, program); err != nil {
			logging.LogError(logging.Logger, logging.NewError(logging.ErrorTypeStore, "failed to cache program", err, map[string]interface{}{"key": key}))
			return err
		}
		logging.Logger.Info().Str("key", key).Msg("Cached compiled program")
	}

	return nil
}

// resolveActions loads the referenced Action records from a file or from the
// store, before compilation starts.
func resolveActions(config *Config, spec *compiler.FilterSpec, st store.Store) (map[int64]*compiler.Action, error) {
	if config.ActionsFile != "" {
		data, err := os.ReadFile(config.ActionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read actions file: %w", err)
		}
		var records []compiler.Action
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid actions file: %w", err)
		}
		actions := make(map[int64]*compiler.Action, len(records))
		for i := range records {
			actions[records[i].ID] = &records[i]
		}
		return actions, nil
	}

	ids, err := spec.ActionIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return map[int64]*compiler.Action{}, nil
	}
	if st == nil {
		return nil, fmt.Errorf("filters reference actions but no actions file or store is configured")
	}
	return st.MGetActions(ids...)
}

// resolveTestAccountFilters loads the team's exclusion filters when the spec
// asks for them.
func resolveTestAccountFilters(config *Config, spec *compiler.FilterSpec, st store.Store) ([]compiler.PropertyFilter, error) {
	if !spec.FilterTestAccounts {
		return nil, nil
	}
	if config.TeamFiltersFile != "" {
		data, err := os.ReadFile(config.TeamFiltersFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read team filters file: %w", err)
		}
		var filters []compiler.PropertyFilter
		if err := json.Unmarshal(data, &filters); err != nil {
			return nil, fmt.Errorf("invalid team filters file: %w", err)
		}
		return filters, nil
	}
	if st == nil {
		return nil, nil
	}
	return st.GetTestAccountFilters(config.TeamID)
}

func parseConfig(args []string) (*Config, error) {
	flags := flag.NewFlagSet("sievec", flag.ContinueOnError)
	configFile := flags.String("config", "", "Path to configuration file")
	filtersFile := flags.String("filters", "", "Path to filter config JSON")
	actionsFile := flags.String("actions", "", "Path to resolved actions JSON")
	teamFiltersFile := flags.String("team-filters", "", "Path to team test-account filters JSON")
	outputFile := flags.String("out", "program.json", "Path to write the compiled program")
	if err := flags.Parse(args[1:]); err != nil {
		return nil, err
	}

	viper.SetConfigType("json")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.output", "console")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.cache_programs", false)
	viper.SetDefault("team.id", 0)

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		viper.SetConfigName("sieve_config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.sieve")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if *filtersFile == "" {
		return nil, fmt.Errorf("a filters file is required (-filters)")
	}

	return &Config{
		FiltersFile:     *filtersFile,
		ActionsFile:     *actionsFile,
		TeamFiltersFile: *teamFiltersFile,
		OutputFile:      *outputFile,
		LogLevel:        viper.GetString("logging.level"),
		LogDestination:  viper.GetString("logging.output"),
		UseRedis:        viper.GetBool("redis.enabled"),
		RedisAddress:    viper.GetString("redis.address"),
		RedisPassword:   viper.GetString("redis.password"),
		RedisDB:         viper.GetInt("redis.database"),
		TeamID:          viper.GetInt64("team.id"),
		CachePrograms:   viper.GetBool("redis.cache_programs"),
	}, nil
}
