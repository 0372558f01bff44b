// Package config loads chatstream configuration from a YAML file, a .env
// file and the environment.
//
// Values are layered: the YAML file is read first, then variables from the
// .env file are exported into the environment, then every CHATSTREAM_*
// variable overrides the matching key. CHATSTREAM_PLAYGROUND_BASE_URL sets
// playground.base_url, CHATSTREAM_LOGGING_LEVEL sets logging.level, and so
// on.
//
//	var cfg AppConfig
//	if err := config.LoadConfig("chatstream", &cfg, config.WithConfigFile(path)); err != nil {
//	    return err
//	}
package config
