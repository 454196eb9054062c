// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// Package backends defines the interface a tensor storage backend needs to
// implement to be used by gondl.
//
// A backend owns the physical representation of tensor data: plain strided
// host memory (see backends/gohost), or an opaque hardware-optimized layout
// managed by a native library (see backends/onednn). Generic tensor code
// never interprets a backend's storage directly, it goes through the
// DataInterface using opaque Buffer handles.
//
// Backends register themselves during initialization (usually via a blank
// import); the backend used by a program is selected once at startup by name,
// through NewWithConfig or the GONDL_BACKEND environment variable -- there is
// no per-call branching on build configuration.
package backends

import (
	"os"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gondl/gondl/types/xslices"
)

// DeviceNum represents which device holds a buffer, or should hold newly
// created buffers. It's up to the backend to interpret it, but it should be
// between 0 and Backend.NumDevices.
type DeviceNum int

// Backend is the capability interface every gondl storage backend implements.
type Backend interface {
	// Name returns the short name of the backend, e.g. "go" or "onednn".
	Name() string

	// Description is a longer description of the Backend that can be used to pretty-print.
	Description() string

	// NumDevices returns the number of devices available for this Backend.
	NumDevices() DeviceNum

	// DataInterface is the sub-interface that defines the API to create, inspect,
	// transfer and copy Buffers for the backend.
	DataInterface

	// Finalize releases all the associated resources immediately, and makes the backend invalid.
	Finalize()
}

// Constructor takes a config string (optionally empty) and returns a Backend.
type Constructor func(config string) Backend

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register backend with the given name, and a default constructor that takes
// as input a configuration string that is passed along to the backend
// constructor.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// Registered returns the sorted names of the registered backends.
func Registered() []string {
	return xslices.SortedKeys(registeredConstructors)
}

// DefaultConfig is the backend configuration to use if GONDL_BACKEND is not
// set.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// GONDL_BACKEND is the environment variable with the default backend
// configuration to use.
//
// The format of config is "<backend_name>:<backend_configuration>".
// The "<backend_name>" is the name of a registered backend (e.g.: "onednn")
// and "<backend_configuration>" is backend specific.
const GONDL_BACKEND = "GONDL_BACKEND"

// New returns a new default Backend.
//
// The default is:
//
// 1. The environment GONDL_BACKEND is used as a configuration if defined.
// 2. Next the variable DefaultConfig is used as a configuration if defined.
// 3. The first registered backend is used with an empty configuration.
//
// It panics if no backend was registered.
func New() Backend {
	config, found := os.LookupEnv(GONDL_BACKEND)
	if found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// NewWithConfig creates a Backend from a configuration string formatted as
// "<backend_name>:<backend_configuration>".
//
// The "<backend_name>" is the name of a registered backend (e.g.: "onednn")
// and "<backend_configuration>" is backend specific (e.g.: for the onednn
// backend it is the path to the native library).
func NewWithConfig(config string) Backend {
	if len(registeredConstructors) == 0 {
		exceptions.Panicf(`no registered backends for gondl -- maybe import the default ones with import _ "github.com/gondl/gondl/backends/default"?`)
	}
	backendName := config
	backendConfig := ""
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	}
	if backendName == "" {
		backendName = firstRegistered
	}
	constructor, found := registeredConstructors[backendName]
	if !found {
		exceptions.Panicf("can't find backend %q for configuration %q given", backendName, config)
	}
	return constructor(backendConfig)
}
