// Package workflow advances queue items through the subtitle pipeline.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and
// feeds items into the registered stage handlers (fetcher, extractor,
// transcriber, exporter) while capturing progress and failure metadata.
// It also aggregates queue stats, calls stage health checks, and emits
// queue-level notifications when processing starts or completes.
//
// Add new lifecycle stages by extending StageSet, updating the queue
// status enums, and teaching the manager how to transition items; this
// package is the authoritative home for that coordination logic.
package workflow
