// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin) && !noonednn

package onednn

import (
	"unsafe"

	"github.com/gondl/gondl/backends"
	"github.com/pkg/errors"
)

// execArg mirrors dnnl_exec_arg_t.
type execArg struct {
	arg int32
	_   int32
	mem uintptr
}

// reorderCopy runs the native reorder primitive from (srcDesc, srcMem) to
// (dstDesc, dstMem) and waits for the stream. Reorder handles both same-layout
// copies and conversions between different internal layouts of the same
// logical shape.
func (b *Backend) reorderCopy(srcDesc, srcMem, dstDesc, dstMem uintptr) error {
	var pd uintptr
	status := b.lib.reorderPrimitiveDescCreate(&pd, srcDesc, b.engine, dstDesc, b.engine, 0)
	if err := statusToError("dnnl_reorder_primitive_desc_create", status); err != nil {
		return err
	}
	defer func() { _ = b.lib.primitiveDescDestroy(pd) }()

	var primitive uintptr
	if err := statusToError("dnnl_primitive_create", b.lib.primitiveCreate(&primitive, pd)); err != nil {
		return err
	}
	defer func() { _ = b.lib.primitiveDestroy(primitive) }()

	args := []execArg{
		{arg: argFrom, mem: srcMem},
		{arg: argTo, mem: dstMem},
	}
	status = b.lib.primitiveExecute(primitive, b.stream, int32(len(args)), unsafe.Pointer(&args[0]))
	if err := statusToError("dnnl_primitive_execute", status); err != nil {
		return err
	}
	return statusToError("dnnl_stream_wait", b.lib.streamWait(b.stream))
}

// BufferCopyInPlace copies the values of src into dst, keeping dst's identity
// and internal layout. Both buffers must have identical shapes; on mismatch it
// fails with backends.ErrInvalidArgument before any byte of dst is written.
//
// The copy is delegated to the native reorder primitive, which reconciles any
// difference in the buffers' internal layouts. It always completes before
// returning: nonBlocking is accepted for interface uniformity and has no
// effect.
func (b *Backend) BufferCopyInPlace(dst, src backends.Buffer, nonBlocking bool) error {
	b.AssertValid()
	dstBuf, err := castBuffer(dst)
	if err != nil {
		return errors.WithMessage(err, "BufferCopyInPlace (dst)")
	}
	srcBuf, err := castBuffer(src)
	if err != nil {
		return errors.WithMessage(err, "BufferCopyInPlace (src)")
	}
	if !srcBuf.shape.Equal(dstBuf.shape) {
		return errors.Wrapf(backends.ErrInvalidArgument,
			"BufferCopyInPlace for %q backend only supports buffers with the same shape, got dst=%s and src=%s",
			BackendName, dstBuf.shape, srcBuf.shape)
	}
	_ = nonBlocking // The reorder is always synchronous.
	return b.reorderCopy(srcBuf.desc, srcBuf.mem, dstBuf.desc, dstBuf.mem)
}
