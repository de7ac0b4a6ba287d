package classifier

import (
	"context"
	"errors"

	"github.com/zero-day-ai/triage/triageerr"
)

// SaveTo writes the loaded model as one artifact.
func (c *Classifier) SaveTo(ctx context.Context, store ArtifactStore) error {
	st := c.current.Load()
	if st == nil {
		return persistenceError("save_model", store, "nothing to save", ErrNoModel)
	}
	data, err := encodeState(st)
	if err != nil {
		return persistenceError("save_model", store, "encode artifact", err)
	}
	if err := store.Write(ctx, data); err != nil {
		return persistenceError("save_model", store, "write artifact", err)
	}
	c.logger.Info("model saved", "location", store.Location(), "trained_at", st.trainedAt)
	return nil
}

// LoadFrom replaces the loaded model with the stored artifact. On any
// failure the current model, or the neutral fallback, stays in place.
func (c *Classifier) LoadFrom(ctx context.Context, store ArtifactStore) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	data, err := store.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			c.logger.Warn("model artifact not found", "location", store.Location())
		} else {
			c.logger.Error("failed to read model artifact", "location", store.Location(), "error", err)
		}
		return persistenceError("load_model", store, "read artifact", err)
	}
	st, err := decodeState(data)
	if err != nil {
		c.logger.Error("failed to load model", "location", store.Location(), "error", err)
		return persistenceError("load_model", store, "decode artifact", err)
	}

	c.swap(st)
	c.logger.Info("model loaded", "location", store.Location(), "trained_at", st.trainedAt, "models", len(st.models))
	return nil
}

// SaveModel writes the model to a file; an empty path selects the
// configured default.
func (c *Classifier) SaveModel(ctx context.Context, path string) error {
	return c.SaveTo(ctx, FileStore{Path: c.path(path)})
}

// LoadModel loads the model from a file; an empty path selects the
// configured default.
func (c *Classifier) LoadModel(ctx context.Context, path string) error {
	return c.LoadFrom(ctx, FileStore{Path: c.path(path)})
}

func (c *Classifier) path(p string) string {
	if p != "" {
		return p
	}
	return c.cfg.modelPath
}

func persistenceError(op string, store ArtifactStore, msg string, cause error) error {
	return triageerr.New("classifier", op, triageerr.KindPersistenceFailure, msg).
		WithCause(cause).
		WithDetails(map[string]any{"location": store.Location()})
}
