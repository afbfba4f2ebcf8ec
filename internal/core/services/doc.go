// Package services implements the core business logic.
//
// Services implement the driving ports and depend only on driven ports,
// never on concrete adapters. The main service is WatchOrchestrator,
// which runs the fetch, score, deduplicate and persist pipeline for a
// watch job. RelevanceScorer, Deduplicator and BatchPersister are its
// stages; they are exported separately so they can be exercised and
// reused on their own.
package services
