// Package classifier implements the statistical layer of the triage
// pipeline: an ensemble of trainable sub-models that maps a feature vector
// to the probability that a finding is a true positive.
//
// # Sub-models
//
// Three models are trained together and combined with fixed ensemble
// weights (0.4/0.4/0.2 by default):
//   - a random forest of CART trees
//   - L2-regularised logistic regression on standardised features
//   - Gaussian naive Bayes
//
// # Degradation
//
// When no model has been trained or loaded, Predict returns a neutral
// verdict (confidence 0.5, not a false positive). Inference failures are
// recovered and also produce the neutral verdict with a note.
//
// # Model State
//
// Trained state is immutable once built and published through an atomic
// pointer. Predictions always observe a complete model; Train and the load
// operations are serialised against each other and swap the pointer only
// after the replacement is fully built.
//
// # Persistence
//
// The model state is serialised as a versioned JSON artifact (see Artifact)
// and written through an ArtifactStore: a local file or an etcd key.
//
// # Feedback
//
// AddFeedback records label corrections in a FeedbackStore (in memory or a
// Redis list). Feedback never touches the loaded model; it is consumed by
// RetrainWithFeedback.
package classifier
