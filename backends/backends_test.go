// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package backends_test

import (
	"os"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/backends/notimplemented"
	"github.com/stretchr/testify/require"
)

type namedBackend struct {
	notimplemented.Backend
	name, config string
}

func (b *namedBackend) Name() string { return b.name }

func registerNamed(name string) {
	backends.Register(name, func(config string) backends.Backend {
		return &namedBackend{name: name, config: config}
	})
}

func TestRegistryAndSelection(t *testing.T) {
	registerNamed("alpha")
	registerNamed("beta")
	require.Subset(t, backends.Registered(), []string{"alpha", "beta"})

	// Explicit name, with and without a backend configuration.
	backend := backends.NewWithConfig("beta")
	require.Equal(t, "beta", backend.Name())
	backend = backends.NewWithConfig("beta:some/config")
	require.Equal(t, "beta", backend.Name())
	require.Equal(t, "some/config", backend.(*namedBackend).config)

	// Empty config falls back to the first registered backend.
	backend = backends.NewWithConfig("")
	require.NotNil(t, backend)

	// Unknown names panic.
	err := exceptions.TryCatch[error](func() { _ = backends.NewWithConfig("no_such_backend") })
	require.Error(t, err)
}

func TestNewReadsEnvironment(t *testing.T) {
	registerNamed("gamma")
	require.NoError(t, os.Setenv(backends.GONDL_BACKEND, "gamma:from-env"))
	defer func() { require.NoError(t, os.Unsetenv(backends.GONDL_BACKEND)) }()

	backend := backends.New()
	require.Equal(t, "gamma", backend.Name())
	require.Equal(t, "from-env", backend.(*namedBackend).config)
}

func TestNewUsesDefaultConfig(t *testing.T) {
	registerNamed("delta")
	require.NoError(t, os.Unsetenv(backends.GONDL_BACKEND))
	backends.DefaultConfig = "delta"
	defer func() { backends.DefaultConfig = "" }()

	backend := backends.New()
	require.Equal(t, "delta", backend.Name())
}
