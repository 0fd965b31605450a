// Package config handles loading and validating ROI core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with ROICORE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (SSH/MQTT/MinIO credentials, JWT secret) should be set via
//     environment variables or a .env file loaded before Load
//   - Upstream schema names are spliced into ATTACH statements, so Validate
//     rejects anything that is not a plain identifier
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
