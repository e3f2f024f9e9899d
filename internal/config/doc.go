// Package config defines the options of a cookie collection run, their
// defaults, validation, and the optional .cookiesnap YAML file.
//
// Precedence is defaults, then the file, then command line flags.
package config
