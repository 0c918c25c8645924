package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrClosed is returned by a Mongo handle after Close.
var ErrClosed = errors.New("mongo handle closed")

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// Mongo is a process-wide, lazily connected database handle. The first call to
// Database dials the server; failed dials are retried on the next call.
type Mongo struct {
	uri  string
	name string

	mu     sync.Mutex
	client *mongo.Client
	closed bool
}

func NewMongo(uri, dbName string) *Mongo {
	return &Mongo{uri: uri, name: dbName}
}

func (m *Mongo) Client(ctx context.Context) (*mongo.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.client != nil {
		return m.client, nil
	}

	client, err := ConnectMongo(ctx, m.uri)
	if err != nil {
		return nil, err
	}
	m.client = client
	return client, nil
}

func (m *Mongo) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := m.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(m.name), nil
}

// Close disconnects the client if one was opened. It is safe to call more than once.
func (m *Mongo) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client = nil
	return err
}
