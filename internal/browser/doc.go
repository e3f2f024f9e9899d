// Package browser is the capability boundary between cookie collection and a
// real web browser.
//
// Session is the small interface the collector and consent packages depend
// on: navigate, read and add cookies, refresh, and find a clickable element.
// Launcher starts Chromium-family browsers through the DevTools protocol
// (go-rod) and hands out Sessions; tests substitute hand-written fakes.
package browser
