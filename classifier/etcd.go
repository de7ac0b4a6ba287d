package classifier

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdConfig configures an EtcdArtifactStore.
type EtcdConfig struct {
	// Endpoints is the list of etcd endpoints, e.g. ["host1:2379"].
	Endpoints []string `yaml:"endpoints"`

	// Namespace prefixes the artifact key. Default: "triage".
	Namespace string `yaml:"namespace"`

	// Name identifies the model within the namespace. Default: "default".
	Name string `yaml:"name"`

	// DialTimeout bounds the initial connection. Default: 5s.
	DialTimeout time.Duration `yaml:"dial_timeout"`

	TLS *TLSConfig `yaml:"tls,omitempty"`
}

// TLSConfig holds client certificate paths for etcd.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`
}

// Key returns the etcd key holding the artifact: /{namespace}/models/{name}.
func (c EtcdConfig) Key() string {
	ns, name := c.Namespace, c.Name
	if ns == "" {
		ns = "triage"
	}
	if name == "" {
		name = "default"
	}
	return "/" + path.Join(ns, "models", name)
}

// kv is the subset of the etcd client used by the store.
type kv interface {
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// EtcdArtifactStore keeps the artifact under a single etcd key so that a
// fleet of engines can share one model. A Put replaces the value atomically.
type EtcdArtifactStore struct {
	kv     kv
	key    string
	closer func() error
}

// NewEtcdArtifactStore connects to etcd. The store must be closed with
// Close when no longer needed.
func NewEtcdArtifactStore(cfg EtcdConfig) (*EtcdArtifactStore, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	clientCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: timeout,
	}
	if cfg.TLS != nil {
		tlsConfig, err := cfg.TLS.clientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		clientCfg.TLS = tlsConfig
	}

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	return &EtcdArtifactStore{kv: cli, key: cfg.Key(), closer: cli.Close}, nil
}

// Read implements ArtifactStore.
func (s *EtcdArtifactStore) Read(ctx context.Context) ([]byte, error) {
	resp, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("etcd get %s: %w", s.key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: etcd key %s", ErrArtifactNotFound, s.key)
	}
	return resp.Kvs[0].Value, nil
}

// Write implements ArtifactStore.
func (s *EtcdArtifactStore) Write(ctx context.Context, data []byte) error {
	if _, err := s.kv.Put(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("etcd put %s: %w", s.key, err)
	}
	return nil
}

// Location implements ArtifactStore.
func (s *EtcdArtifactStore) Location() string { return "etcd://" + s.key }

// Close releases the etcd connection.
func (s *EtcdArtifactStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (c *TLSConfig) clientConfig() (*tls.Config, error) {
	if c.CertFile == "" || c.KeyFile == "" || c.CAFile == "" {
		return nil, fmt.Errorf("TLS requires cert_file, key_file and ca_file")
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}
	caData, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caData) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
