// Package pipeline runs the stages of a single target visit in order.
//
// A visit is navigate, settle, consent, dynamic_settle and read_cookies; each
// stage is a Step that records its result on a shared model.Visit. The
// pipeline stops at the first failing step and reports it as a StepError so
// callers know where collection broke. Hooks around steps let the collector
// report progress without the steps knowing about it.
package pipeline
