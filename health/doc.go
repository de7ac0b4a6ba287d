// Package health reports the operational state of a triage engine.
//
// A Status is healthy, degraded or unhealthy. The engine stays usable while
// degraded: without a trained model the classifier answers with a neutral
// verdict and filtering continues on rules and evidence alone.
//
//	status := health.Combine(
//	    health.ModelCheck(info),
//	    health.ArtifactCheck("models/fp_classifier.json"),
//	)
//	if status.IsDegraded() {
//	    log.Println(status.Message)
//	}
package health
