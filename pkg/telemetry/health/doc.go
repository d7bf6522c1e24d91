// Package health provides liveness and readiness probes for the export
// service.
//
// # Overview
//
// The health package implements liveness and readiness probes for
// Kubernetes and other orchestration systems, along with a version
// information endpoint. Components register named check functions and
// the readiness handler aggregates them.
//
// # Endpoints
//
//   - /health: Liveness probe - indicates if the process is running
//   - /ready: Readiness probe - indicates if the system can serve traffic
//   - /version: Build information - version, commit, build time
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//
//	// Register dependency probes; each issues a real, cheap read.
//	checker.RegisterCheck("search", func(ctx context.Context) error {
//	    _, err := backend.Search(ctx, &search.Query{Owner: search.OwnerAll}, "", 1)
//	    return err
//	})
//	checker.RegisterCheck("run_store", func(ctx context.Context) error {
//	    _, err := store.ListRuns(ctx, export.ListOptions{Limit: 1})
//	    return err
//	})
//
//	// Add HTTP handlers
//	http.HandleFunc("/health", checker.LivenessHandler())
//	http.HandleFunc("/ready", checker.ReadinessHandler())
//	http.HandleFunc("/version", health.VersionHandler("1.0.0", "abc123", "2026-08-23"))
//
// # Liveness vs Readiness
//
// Liveness (/health) answers "is the process alive" and never consults
// component checks; orchestrators use it to restart wedged pods.
// Readiness (/ready) runs every registered check and returns 503 if any
// fails; orchestrators use it to gate traffic, so a service with an
// unreachable search backend stops receiving export requests without
// being restarted.
//
// Common component checks:
//   - search: Search backend reachable
//   - run_store: Run record store accessible
//   - destination: Destination root writable
//
// # Example Response
//
// Readiness response (/ready):
//
//	{
//	    "status": "ready",
//	    "checks": {
//	        "search": {"status": "ok"},
//	        "run_store": {"status": "ok"},
//	        "destination": {"status": "ok"}
//	    },
//	    "timestamp": "2026-08-23T10:30:00Z"
//	}
//
// Degraded response (/ready):
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "search": {"status": "unhealthy", "message": "connection refused"},
//	        "run_store": {"status": "ok"}
//	    },
//	    "timestamp": "2026-08-23T10:30:00Z"
//	}
package health
