// Package health provides liveness and readiness endpoints.
//
// Liveness reports that the process is up. Readiness runs the registered
// checks; the server registers one that waits for the first tuning load
// attempt, so /readyz turns 200 once the detector has either merged the
// tuning document or given up and kept the built-in rules.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("tuning", health.ChannelClosed(loader.Ready(), "tuning document not loaded yet"))
//	mux.HandleFunc("GET /healthz", checker.LivenessHandler())
//	mux.HandleFunc("GET /readyz", checker.ReadinessHandler())
package health
