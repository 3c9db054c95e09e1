// Package config provides configuration parsing for navroute.
//
// The configuration is stored in navroute.json next to the route manifest.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "manifest": "routes.yaml",
//	  "maxRedirects": 10,
//	  "watch": true,
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 8080,
//	    "origins": ["https://example.com"],
//	    "shutdownTimeout": "5s"
//	  },
//	  "socket": {
//	    "handshakeTimeout": "10s",
//	    "writeTimeout": "10s",
//	    "eventRate": 20,
//	    "eventBurst": 40
//	  },
//	  "metrics": { "enabled": true, "path": "/metrics" },
//	  "tracing": { "enabled": true, "stdout": false },
//	  "log": { "level": "info", "format": "json" },
//	  "aws": { "region": "eu-west-1" }
//	}
//
// The manifest may also be an s3://bucket/key URI.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
