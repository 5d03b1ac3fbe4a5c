// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error taxonomy a build or run can fail with.
// Wrap one of these with fmt.Errorf's %w verb (see the wrap helpers below)
// so callers can recover the category with errors.Is regardless of how
// much detail the message carries.
var (
	// ErrInvalidConnection marks connector-variant incompatibility or a
	// sink that is already bound under an error conflict policy.
	ErrInvalidConnection = errors.New("invalid-connection")

	// ErrConnectorError marks a layout conflict for a resource shared by
	// several consumers, or a malformed descriptor-info response.
	ErrConnectorError = errors.New("connector-error")

	// ErrMissingInput marks a non-optional input left unconnected at
	// build time.
	ErrMissingInput = errors.New("missing-input")

	// ErrGraphNotAcyclic marks a delay-0 cycle discovered during
	// topological ordering.
	ErrGraphNotAcyclic = errors.New("graph-not-acyclic")

	// ErrAllocationFailed marks a rejection from the underlying
	// allocator; the build aborts.
	ErrAllocationFailed = errors.New("allocation-failed")

	// ErrNodeError marks an exception-equivalent (a panic, recovered)
	// raised from a node hook; the node is disabled, the build continues.
	ErrNodeError = errors.New("node-error")
)

func wrapInvalidConnection(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConnection}, args...)...)
}

func wrapConnectorError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConnectorError}, args...)...)
}

func wrapMissingInput(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMissingInput}, args...)...)
}

func wrapGraphNotAcyclic(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrGraphNotAcyclic}, args...)...)
}

func wrapAllocationFailed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrAllocationFailed}, args...)...)
}

func wrapNodeError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNodeError}, args...)...)
}

// ExitCode maps an error returned from Driver.Run or Load to a
// driver-level exit code: 0 success, 1 generic error, 2 invalid graph
// (cycle, missing required input, layout conflict).
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrGraphNotAcyclic), errors.Is(err, ErrMissingInput), errors.Is(err, ErrConnectorError), errors.Is(err, ErrInvalidConnection):
		return 2
	default:
		return 1
	}
}
