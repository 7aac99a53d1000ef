package extract

import (
	"context"
	"errors"

	"github.com/opensearch-project/opensearch-go/v2"
)

var (
	// ErrConnectionFailed indicates the OpenSearch client could not be
	// created. Use errors.Is() to check.
	ErrConnectionFailed = errors.New("opensearch connection failed")

	// ErrClusterUnreachable indicates the cluster did not answer the
	// initial info request.
	ErrClusterUnreachable = errors.New("opensearch cluster unreachable")
)

// ClientConfig holds OpenSearch connection parameters.
type ClientConfig struct {
	Addresses []string
	Username  string
	Password  string
}

// Connect creates an OpenSearch client and verifies cluster connectivity
// with an info request before returning it.
func Connect(ctx context.Context, cfg ClientConfig) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, errors.Join(ErrClusterUnreachable, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, ErrClusterUnreachable
	}

	return client, nil
}
