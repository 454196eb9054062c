// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin) && !noonednn

package onednn

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/Masterminds/semver/v3"
	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// MinimumVersion is the oldest oneDNN release the backend accepts: the v3
// C API changed memory descriptors to opaque handles, which this binding
// relies on.
var MinimumVersion = semver.MustParse("3.0.0")

// defaultSonames searched when GONDL_DNNL_LIB is not set.
var defaultSonames = []string{
	"libdnnl.so.3",
	"libdnnl.so",
	"libdnnl.3.dylib",
	"libdnnl.dylib",
}

// dnnl_status_t values.
const (
	statusSuccess          = 0
	statusOutOfMemory      = 1
	statusInvalidArguments = 2
	statusUnimplemented    = 3
	statusLastImplReached  = 4
	statusRuntimeError     = 5
)

var statusNames = map[int32]string{
	statusOutOfMemory:      "out of memory",
	statusInvalidArguments: "invalid arguments",
	statusUnimplemented:    "unimplemented",
	statusLastImplReached:  "last implementation reached",
	statusRuntimeError:     "runtime error",
}

// statusToError converts a dnnl_status_t returned by a native call to an
// error, nil on success.
func statusToError(call string, status int32) error {
	if status == statusSuccess {
		return nil
	}
	name, found := statusNames[status]
	if !found {
		name = fmt.Sprintf("status %d", status)
	}
	return errors.Errorf("oneDNN %s failed: %s", call, name)
}

// dnnl_engine_kind_t.
const engineKindCPU = 1

// dnnl_stream_default_flags.
const streamDefaultFlags = 0

// DNNL_ARG_FROM / DNNL_ARG_TO for reorder execution.
const (
	argFrom = 1  // DNNL_ARG_SRC_0
	argTo   = 17 // DNNL_ARG_DST_0
)

// memoryAllocate is DNNL_MEMORY_ALLOCATE: ask the library to own the buffer.
const memoryAllocate = ^uintptr(0)

// library holds the dynamically loaded oneDNN entry points used by the
// backend. There is a single process-wide instance, loaded lazily.
type library struct {
	handle  uintptr
	path    string
	version *semver.Version

	engineCreate   func(engine *uintptr, kind int32, index uintptr) int32
	engineDestroy  func(engine uintptr) int32
	engineGetCount func(kind int32) uintptr

	streamCreate  func(stream *uintptr, engine uintptr, flags uint32) int32
	streamWait    func(stream uintptr) int32
	streamDestroy func(stream uintptr) int32

	memoryDescCreateWithTag func(desc *uintptr, ndims int32, dims *int64, dataType int32, tag int32) int32
	memoryDescDestroy       func(desc uintptr) int32
	memoryCreate            func(mem *uintptr, desc uintptr, engine uintptr, handle uintptr) int32
	memoryDestroy           func(mem uintptr) int32

	reorderPrimitiveDescCreate func(pd *uintptr, srcDesc, srcEngine, dstDesc, dstEngine, attr uintptr) int32
	primitiveCreate            func(p *uintptr, pd uintptr) int32
	primitiveExecute           func(p uintptr, stream uintptr, nargs int32, args unsafe.Pointer) int32
	primitiveDestroy           func(p uintptr) int32
	primitiveDescDestroy       func(pd uintptr) int32

	versionFn func() unsafe.Pointer
}

var (
	libOnce sync.Once
	lib     *library
	libErr  error
)

// loadLibrary loads and binds the oneDNN shared library once per process.
// An explicit path (from the backend configuration) takes precedence over
// GONDL_DNNL_LIB and the default sonames.
func loadLibrary(explicitPath string) (*library, error) {
	libOnce.Do(func() {
		lib, libErr = dlopenAndBind(explicitPath)
	})
	return lib, libErr
}

// IsAvailable reports whether the oneDNN native library can be loaded in
// this process. It never panics, so it is safe to use to decide whether to
// use (or test) this backend.
func IsAvailable() bool {
	_, err := loadLibrary("")
	return err == nil
}

func dlopenAndBind(explicitPath string) (*library, error) {
	candidates := defaultSonames
	if explicitPath != "" {
		candidates = []string{explicitPath}
	} else if fromEnv := os.Getenv(GONDL_DNNL_LIB); fromEnv != "" {
		candidates = []string{fromEnv}
	}

	var handle uintptr
	var path string
	var lastErr error
	for _, candidate := range candidates {
		var err error
		handle, err = purego.Dlopen(candidate, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil && handle != 0 {
			path = candidate
			break
		}
		lastErr = err
		handle = 0
	}
	if handle == 0 {
		return nil, errors.Wrapf(lastErr, "cannot load oneDNN shared library (tried %v) -- "+
			"set %s to the library path", candidates, GONDL_DNNL_LIB)
	}

	l := &library{handle: handle, path: path}
	purego.RegisterLibFunc(&l.engineCreate, handle, "dnnl_engine_create")
	purego.RegisterLibFunc(&l.engineDestroy, handle, "dnnl_engine_destroy")
	purego.RegisterLibFunc(&l.engineGetCount, handle, "dnnl_engine_get_count")
	purego.RegisterLibFunc(&l.streamCreate, handle, "dnnl_stream_create")
	purego.RegisterLibFunc(&l.streamWait, handle, "dnnl_stream_wait")
	purego.RegisterLibFunc(&l.streamDestroy, handle, "dnnl_stream_destroy")
	purego.RegisterLibFunc(&l.memoryDescCreateWithTag, handle, "dnnl_memory_desc_create_with_tag")
	purego.RegisterLibFunc(&l.memoryDescDestroy, handle, "dnnl_memory_desc_destroy")
	purego.RegisterLibFunc(&l.memoryCreate, handle, "dnnl_memory_create")
	purego.RegisterLibFunc(&l.memoryDestroy, handle, "dnnl_memory_destroy")
	purego.RegisterLibFunc(&l.reorderPrimitiveDescCreate, handle, "dnnl_reorder_primitive_desc_create")
	purego.RegisterLibFunc(&l.primitiveCreate, handle, "dnnl_primitive_create")
	purego.RegisterLibFunc(&l.primitiveExecute, handle, "dnnl_primitive_execute")
	purego.RegisterLibFunc(&l.primitiveDestroy, handle, "dnnl_primitive_destroy")
	purego.RegisterLibFunc(&l.primitiveDescDestroy, handle, "dnnl_primitive_desc_destroy")
	purego.RegisterLibFunc(&l.versionFn, handle, "dnnl_version")

	version, err := l.readVersion()
	if err != nil {
		return nil, err
	}
	if version.LessThan(MinimumVersion) {
		return nil, errors.Errorf("oneDNN library %q is version %s, gondl requires >= %s",
			path, version, MinimumVersion)
	}
	l.version = version
	klog.V(1).Infof("onednn backend: loaded oneDNN %s from %q", version, path)
	return l, nil
}

// dnnlVersion mirrors dnnl_version_t.
type dnnlVersion struct {
	major, minor, patch int32
	_                   int32
	hash                *byte
	cpuRuntime          int32
	gpuRuntime          int32
}

func (l *library) readVersion() (*semver.Version, error) {
	ptr := l.versionFn()
	if ptr == nil {
		return nil, errors.New("oneDNN dnnl_version() returned nil")
	}
	v := (*dnnlVersion)(ptr)
	version, err := semver.NewVersion(fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse oneDNN version %d.%d.%d", v.major, v.minor, v.patch)
	}
	return version, nil
}
