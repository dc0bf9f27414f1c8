// Package enhance layers cross-cutting behaviors onto an operation without
// touching its logic. Each behavior wraps exactly one upstream operation and
// returns a new operation with the same name, parameters and call shape.
//
// Behaviors compose through Enhance, which applies them left to right: the
// first behavior sits closest to the original operation and the last one is
// outermost.
//
//	op, err := e.Enhance(calc,
//		enhance.Logging(),  // innermost: traces every real attempt
//		enhance.Retry(2),   // retries the traced call
//		enhance.Caching(),  // caches only the final successful result
//	)
//
// Order matters. Envelope turns failures into ordinary values, so any
// behavior stacked above it sees only successes: Retry over Envelope never
// retries, and Caching over Envelope caches failed responses. Validate
// placed outermost rejects bad input before any other behavior runs;
// placed under Retry, its failures are not retried by the default policy.
package enhance
