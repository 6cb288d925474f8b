// Package config loads routec configuration.
//
// Settings come from a routec.json, routec.yaml or routec.toml file at the
// project root, ROUTEC_* environment variables and command-line flags, in
// increasing priority.
//
// # Configuration File Structure
//
//	{
//	  "dir": "app/routes",
//	  "output": "app/routes/routes_gen.go",
//	  "mode": "static",
//	  "dialect": "chi",
//	  "externals": ["internal/**", "*_gen.go"],
//	  "typeHints": true,
//	  "dev": {
//	    "addr": "localhost:3100",
//	    "debounce": "100ms",
//	    "virtualRoute": "/_routec/artifact"
//	  },
//	  "publish": {
//	    "s3": {"bucket": "deploy", "key": "routes/manifest.json"}
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".", cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Routes:", cfg.RoutesPath())
package config
