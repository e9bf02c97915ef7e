// Package config fills configuration structs from environment variables using
// github.com/caarlos0/env struct tags, after loading a .env file if present.
//
// Each struct type is parsed once and cached, so packages can call Load for
// their own config type without coordinating:
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// LoadEnv loads additional dotenv files explicitly. Variables already present
// in the process environment are never overwritten.
package config
