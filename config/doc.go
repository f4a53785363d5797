// Package config loads layered configuration with viper.
//
// Values come from a YAML file, then a .env file (godotenv), then the
// process environment. Environment variables are scoped by the service
// name: for service "pinch", PINCH_NATIVE_TIMEOUT sets native.timeout.
//
//	type Config struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Native native.Config `mapstructure:"native"`
//	}
//
//	var cfg Config
//	err := config.LoadConfig("pinch", &cfg, config.WithConfigFile(path))
package config
