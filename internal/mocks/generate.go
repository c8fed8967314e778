// Package mocks provides mock implementations for testing the tic-ui
// frontend core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the interfaces consumed across packages. The mocks are generated
// using go:generate directives and provide a fluent API for setting up
// test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	auth := mocks.NewMockAuthenticator(ctrl)
//	auth.EXPECT().CheckAuthentication(gomock.Any(), gomock.Any()).Return(true, nil)
package mocks

// Generate mocks for the navigation guard's dependencies: the session
// manager slice (Authenticator) and the preferences slice (StartPages).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=nav_mock.go github.com/tic-iptv/tic-ui/internal/nav Authenticator,StartPages

// Generate mock for the client-state store so callers can exercise
// persistence failure paths without a real backend.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=store_mock.go github.com/tic-iptv/tic-ui/internal/storage Store
