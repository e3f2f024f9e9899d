// Package report writes run results and stored site listings.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with tables, alerts and a mermaid chart
//
// Writers never print cookie values in text or Markdown output. Site listings
// can annotate well-known tracking and session cookies with a short
// explanation of what they are used for.
package report
