// Package config provides configuration management for the prediction service.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have defaults that run the bundled model locally.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
