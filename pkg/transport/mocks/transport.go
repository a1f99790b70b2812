package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/3leaps/bucketagent/pkg/transport"
)

// Transport is a mock implementation of transport.Transport.
type Transport struct {
	mock.Mock
}

var _ transport.Transport = (*Transport)(nil)

func (m *Transport) Get(ctx context.Context, url string, opts transport.Options) (*transport.Response, error) {
	return m.call("Get", ctx, url, opts)
}

func (m *Transport) Put(ctx context.Context, url string, opts transport.Options) (*transport.Response, error) {
	return m.call("Put", ctx, url, opts)
}

func (m *Transport) Head(ctx context.Context, url string, opts transport.Options) (*transport.Response, error) {
	return m.call("Head", ctx, url, opts)
}

func (m *Transport) Delete(ctx context.Context, url string, opts transport.Options) (*transport.Response, error) {
	return m.call("Delete", ctx, url, opts)
}

func (m *Transport) call(method string, ctx context.Context, url string, opts transport.Options) (*transport.Response, error) {
	args := m.MethodCalled(method, ctx, url, opts)
	if resp, ok := args.Get(0).(*transport.Response); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}
