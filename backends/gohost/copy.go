// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package gohost

import (
	"github.com/gondl/gondl/backends"
	"github.com/pkg/errors"
)

// BufferCopyInPlace overwrites dst's flat data with src's flat data.
//
// Both buffers must be live gohost buffers of identical shape; the shape
// check happens before any element is written, so a failed call leaves dst
// untouched. Host copies are synchronous, nonBlocking has no effect.
func (b *Backend) BufferCopyInPlace(dst, src backends.Buffer, nonBlocking bool) error {
	_ = nonBlocking // Accepted for interface uniformity; host copies always complete synchronously.
	dstBuf, err := castBuffer(dst)
	if err != nil {
		return errors.WithMessage(err, "BufferCopyInPlace (dst)")
	}
	srcBuf, err := castBuffer(src)
	if err != nil {
		return errors.WithMessage(err, "BufferCopyInPlace (src)")
	}
	if !dstBuf.shape.Equal(srcBuf.shape) {
		return errors.Wrapf(backends.ErrInvalidArgument,
			"BufferCopyInPlace for %q backend only supports same-shape buffers, got dst=%s and src=%s",
			BackendName, dstBuf.shape, srcBuf.shape)
	}
	copyFlat(dstBuf.flat, srcBuf.flat)
	return nil
}
