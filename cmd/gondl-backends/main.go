// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// gondl-backends lists the tensor storage backends registered in this build
// and runs a small data-movement check on the selected one.
//
// Usage:
//
//	gondl-backends [-backend <name[:config]>] [-smoke]
//
// Without -backend it uses the usual selection order (GONDL_BACKEND, then the
// first registered backend).
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	_ "github.com/gondl/gondl/backends/default"
	"github.com/gondl/gondl/tensors"
	"github.com/gondl/gondl/types/shapes"
	"github.com/gondl/gondl/types/xslices"
	"k8s.io/klog/v2"
)

var (
	flagBackend = flag.String("backend", "", "Backend configuration, formatted as \"<name>:<config>\". "+
		"Defaults to the "+backends.GONDL_BACKEND+" environment variable, or the first registered backend.")
	flagSmoke = flag.Bool("smoke", true, "Run a small copy check on the selected backend.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	fmt.Println("Registered backends:")
	for _, name := range backends.Registered() {
		fmt.Printf("\t%s\n", name)
	}

	err := exceptions.TryCatch[error](run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func run() {
	var backend backends.Backend
	if *flagBackend != "" {
		backend = backends.NewWithConfig(*flagBackend)
	} else {
		backend = backends.New()
	}
	defer backend.Finalize()

	fmt.Printf("\nSelected backend: %s\n", backend.Description())
	fmt.Printf("\tDevices: %d\n", backend.NumDevices())
	fmt.Printf("\tShared buffers: %v\n", backend.HasSharedBuffers())
	if withCapabilities, ok := backend.(backends.HasCapabilities); ok {
		capabilities := withCapabilities.Capabilities()
		var names []string
		for dtype, supported := range capabilities.DTypes {
			if supported {
				names = append(names, dtype.String())
			}
		}
		sort.Strings(names)
		fmt.Printf("\tDTypes: %v\n", names)
	}

	if !*flagSmoke {
		return
	}

	shape := shapes.Make(dtypes.Float32, 256, 256)
	fmt.Printf("\nCopy check with shape %s (%s per buffer):\n", shape, humanize.Bytes(uint64(shape.Memory())))
	src := tensors.FromFlatDataAndDimensions(xslices.Iota(float32(0), shape.Size()), shape.Dimensions...)
	dst := tensors.FromShape(shape)
	src.MaterializeOnDevice(backend)
	dst.MaterializeOnDevice(backend)
	dst.CopyFrom(src, false)

	srcData := tensors.CopyFlatData[float32](src)
	dstData := tensors.CopyFlatData[float32](dst)
	for ii := range srcData {
		if srcData[ii] != dstData[ii] {
			exceptions.Panicf("copy check failed: element %d differs (%v != %v)", ii, srcData[ii], dstData[ii])
		}
	}
	fmt.Println("\tOK")
}
