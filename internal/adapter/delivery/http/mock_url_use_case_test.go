package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/redirector/internal/access"
)

type mockURLUseCase struct {
	mock.Mock
}

func newMockURLUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockURLUseCase {
	m := &mockURLUseCase{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *mockURLUseCase) Create(ctx context.Context, targetURL string) (access.AdminView, error) {
	args := m.Called(ctx, targetURL)
	return args.Get(0).(access.AdminView), args.Error(1)
}

func (m *mockURLUseCase) Peek(ctx context.Context, key string) (access.RedirectView, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(access.RedirectView), args.Error(1)
}

func (m *mockURLUseCase) ListAll(ctx context.Context) ([]access.ListView, error) {
	args := m.Called(ctx)

	var views []access.ListView
	if v := args.Get(0); v != nil {
		views = v.([]access.ListView)
	}

	return views, args.Error(1)
}

func (m *mockURLUseCase) RecordVisit(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockURLUseCase) AdminLookup(ctx context.Context, secretKey string) (access.AdminView, error) {
	args := m.Called(ctx, secretKey)
	return args.Get(0).(access.AdminView), args.Error(1)
}

func (m *mockURLUseCase) UpdateTarget(ctx context.Context, secretKey, newTargetURL string) (access.RecordView, error) {
	args := m.Called(ctx, secretKey, newTargetURL)
	return args.Get(0).(access.RecordView), args.Error(1)
}

func (m *mockURLUseCase) Deactivate(ctx context.Context, secretKey string) (string, error) {
	args := m.Called(ctx, secretKey)
	return args.String(0), args.Error(1)
}
