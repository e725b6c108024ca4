// Package config loads runtime configuration for the identity CLI.
//
// Sources, in increasing precedence: built-in defaults, an optional JSON file
// given with -c or -config, IDENTITY_CLI_* environment variables and flags.
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "5s",
//	  "request_timeout": "10s"
//	}
package config
