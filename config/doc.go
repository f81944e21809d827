// Package config loads pspd's configuration.
//
// LoadConfig reads a YAML file with Viper and lets the environment override
// any leaf key. The variable name is the key path upper-cased with dots
// turned into underscores, so psp.resilience.retry.max_attempts comes from
// PSP_RESILIENCE_RETRY_MAX_ATTEMPTS. A .env file, loaded with godotenv, can
// supply those variables.
//
//	cfg := Config{PSP: config.DefaultPSPConfig()}
//	if err := config.LoadConfig("pspd", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//
// PSPConfig holds the payment settings: the default provider, the provider
// instances, supported currencies and the resilience policy.
package config
