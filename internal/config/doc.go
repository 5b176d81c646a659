// Package config provides configuration management for aichat authentication.
//
// Configuration is loaded from a single directory. The directory is resolved
// in this order:
//
//  1. $AICHAT_CONFIG_DIR
//  2. $XDG_CONFIG_HOME/aichat
//  3. os.UserConfigDir()/aichat
//
// Commands accept --config-dir to override all three.
//
// # Directory Layout
//
//	<config-dir>/
//	  config.yaml                         main configuration (optional)
//	  oauth_creds.json                    cached OAuth credentials (0600)
//	  clients/<name>/client_secret.json   OAuth client registrations (0600)
//
// # config.yaml
//
//	api_key: ""              # non-empty selects static key authentication
//	oauth:
//	  client: gemini
//	  redirect_uri: http://localhost:37387/
//	  scopes: []
//	  issuer: ""             # optional OIDC discovery
//	  auth_url: ""
//	  token_url: ""
//	  userinfo_url: ""
//	  callback_timeout: 5m
//	  open_browser: true
//
// $AICHAT_API_KEY overrides api_key.
//
// # Client Secrets
//
// Client secrets use Google's client_secret.json format and are parsed with
// golang.org/x/oauth2/google. ImportClientSecret validates a downloaded file
// and installs it under the clients directory. No client secret is compiled
// into the binary and no absolute path outside the config directory is used.
package config
