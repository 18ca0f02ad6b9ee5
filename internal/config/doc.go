// Package config provides user configuration management for the TeBot tools.
//
// This package manages a YAML configuration file holding the default robot
// controller endpoint, connection timeouts, the step-count policy and a list
// of remembered robots. The file follows OS-specific conventions for its
// location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/tebot/config.yaml or $HOME/.config/tebot/config.yaml
//   - macOS: $HOME/.config/tebot/config.yaml
//   - Windows: %LOCALAPPDATA%\tebot\config.yaml
//
// # File Format
//
//	version: 1
//	endpoint: ws://localhost:5000
//	handshake_timeout: 10s
//	write_timeout: 5s
//	step_policy: clamp
//	discovery:
//	    timeout: 5s
//	robots:
//	    desk:
//	        endpoint: ws://192.168.4.20:5000/
//
// Durations use Go syntax ("500ms", "10s"). Omitted fields take defaults.
//
// # Usage Example
//
//	cfg, err := config.LoadDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	endpoint := cfg.ResolveEndpoint("desk")
//
// # Thread Safety
//
// Config values are not synchronized. Save is protected by a mutex and
// writes atomically through a temporary file.
package config
