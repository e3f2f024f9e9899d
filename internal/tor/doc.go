// Package tor routes browser sessions through a SOCKS5 proxy.
//
// Two routing modes are supported. An existing proxy (for example a system
// Tor daemon on 127.0.0.1:9050) is checked with a SOCKS5 handshake before the
// browser is launched. Alternatively an embedded Tor daemon is started through
// the tornago library and stopped when collection ends.
//
// The package holds no global state; callers create a Client or EmbeddedTor
// and pass the resulting proxy address to the browser launcher.
package tor
