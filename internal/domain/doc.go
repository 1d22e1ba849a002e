// Package domain contains the core concepts shared by the conversion and merge
// pipelines: uploaded files, per-item failures and the error kinds surfaced to callers.
// Keep this package free of transport (HTTP) and infrastructure (Redis/S3) concerns.
package domain
