// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package backends

import "github.com/pkg/errors"

// Error kinds shared by all backends. They are meant to be wrapped with
// context (operation name, shapes involved) using errors.Wrapf, and tested
// with errors.Is.
var (
	// ErrInvalidArgument indicates the caller passed arguments that violate an
	// operation's preconditions, e.g. a copy between buffers of different
	// shapes. It is always reported before any mutation takes place.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotSupported indicates the operation requires a capability this
	// build of gondl doesn't have, e.g. calling into the onednn backend when
	// it was compiled out. It is reported before any argument inspection.
	ErrNotSupported = errors.New("operation not supported by this build")

	// ErrNotImplemented indicates an operation a backend simply doesn't
	// provide. See the backends/notimplemented package.
	ErrNotImplemented = errors.New("not implemented")
)
