package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zero-day-ai/triage/finding"
)

// fakeKV is an in-memory stand-in for the etcd KV API.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.data[key] = val
	return &clientv3.PutResponse{}, nil
}

func (f *fakeKV) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	resp := &clientv3.GetResponse{}
	if v, ok := f.data[key]; ok {
		resp.Kvs = []*mvccpb.KeyValue{{Key: []byte(key), Value: []byte(v)}}
	}
	return resp, nil
}

func TestEtcdConfig_Key(t *testing.T) {
	assert.Equal(t, "/triage/models/default", EtcdConfig{}.Key())
	assert.Equal(t, "/prod/models/xss", EtcdConfig{Namespace: "prod", Name: "xss"}.Key())
}

func TestNewEtcdArtifactStore_RequiresEndpoints(t *testing.T) {
	_, err := NewEtcdArtifactStore(EtcdConfig{})
	assert.Error(t, err)
}

func TestEtcdArtifactStore(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store := &EtcdArtifactStore{kv: kv, key: EtcdConfig{}.Key()}
	assert.Equal(t, "etcd:///triage/models/default", store.Location())

	_, err := store.Read(ctx)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	require.NoError(t, store.Write(ctx, []byte(`{"a":1}`)))
	data, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	kv.err = errors.New("etcdserver: request timed out")
	_, err = store.Read(ctx)
	assert.ErrorContains(t, err, "request timed out")
	assert.Error(t, store.Write(ctx, nil))
	assert.NoError(t, store.Close())
}

func TestClassifier_SharesModelThroughEtcd(t *testing.T) {
	ctx := context.Background()
	store := &EtcdArtifactStore{kv: newFakeKV(), key: "/triage/models/shared"}

	producer := trained(t)
	require.NoError(t, producer.SaveTo(ctx, store))

	consumer := New()
	require.NoError(t, consumer.LoadFrom(ctx, store))
	assert.True(t, consumer.Available())

	f := unreflectedProbe(3)
	assert.Equal(t, producer.Predict(&f).IsFalsePositive, consumer.Predict(&f).IsFalsePositive)
}

func setupRedisStore(t *testing.T) (*RedisFeedbackStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisFeedbackStore(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		Key:            "test:feedback",
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisFeedbackStore(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	first := Feedback{ID: "1", Finding: finding.Finding{ID: "f-1", Confidence: 0.4}, Label: finding.LabelFalsePositive}
	second := Feedback{ID: "2", Finding: finding.Finding{ID: "f-2", Confidence: 0.9}, Label: finding.LabelTruePositive}
	require.NoError(t, store.Add(ctx, first))
	require.NoError(t, store.Add(ctx, second))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "f-1", got[0].Finding.ID)
	assert.Equal(t, finding.LabelFalsePositive, got[0].Label)
	assert.Equal(t, "f-2", got[1].Finding.ID)

	_, err = mr.RPush("test:feedback", "{not json")
	require.NoError(t, err)
	got, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, store.Clear(ctx))
	got, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, mr.Exists("test:feedback"))
}

func TestRedisFeedbackStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisFeedbackStore(RedisOptions{URL: "://bad"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisFeedbackStore(RedisOptions{URL: "redis://" + addr, ConnectTimeout: 500 * time.Millisecond})
	assert.Error(t, err)
}

func TestClassifier_FeedbackInRedis(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)
	c := newTestClassifier(WithFeedbackStore(store))

	for i := range 3 {
		require.NoError(t, c.AddFeedback(ctx, unreflectedProbe(100+i), finding.LabelFalsePositive))
	}
	metrics, err := c.RetrainWithFeedback(ctx, labeledSet(10))
	require.NoError(t, err)
	assert.Equal(t, 23, metrics.TrainingSamples+metrics.TestSamples)
}

func TestMemoryFeedbackStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFeedbackStore()
	require.NoError(t, s.Add(ctx, Feedback{ID: "1"}))

	got, err := s.List(ctx)
	require.NoError(t, err)
	got[0].ID = "mutated"

	again, _ := s.List(ctx)
	assert.Equal(t, "1", again[0].ID)

	require.NoError(t, s.Clear(ctx))
	again, _ = s.List(ctx)
	assert.Empty(t, again)
}
