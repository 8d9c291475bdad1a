// Package config loads typed configuration structs from the process
// environment.
//
// A `.env` file in the working directory, when present, is applied once before
// the first parse (github.com/joho/godotenv). Struct fields are bound with
// github.com/caarlos0/env/v11 tags:
//
//	type Config struct {
//		Issuer string        `env:"JWT_ISSUER,required"`
//		TTL    time.Duration `env:"JWT_ACCESS_TTL" envDefault:"60m"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
//
// Each struct type is parsed at most once per process; later calls return the
// cached copy. Reset clears the cache for tests.
package config
