// Package runbook holds shared metadata for the runbook tool.
package runbook

// Version is the current runbook release.
const Version = "0.3.1"
