// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a StorageError.
type ErrorKind int

const (
	// KindConfiguration is detected before any network call.
	KindConfiguration ErrorKind = iota + 1
	// KindAccount means the account probe failed.
	KindAccount
	// KindTransfer wraps a storage failure during the transfer itself.
	KindTransfer
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAccount:
		return "account"
	case KindTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrConfiguration = &StorageError{Kind: KindConfiguration}
	ErrAccount       = &StorageError{Kind: KindAccount}
	ErrTransfer      = &StorageError{Kind: KindTransfer}
)

// StorageError is the single error type returned by the service, whatever the
// storage client underneath.
type StorageError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String() + " error"
	case e.Err == nil:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	case e.Op == "":
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches any StorageError of the same kind.
func (e *StorageError) Is(target error) bool {
	var t *StorageError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func configError(format string, a ...any) error {
	return &StorageError{Kind: KindConfiguration, Op: fmt.Sprintf(format, a...)}
}

func accountError(err error) error {
	return &StorageError{Kind: KindAccount, Op: "validate storage account", Err: err}
}

func transferError(op string, err error) error {
	return &StorageError{Kind: KindTransfer, Op: op, Err: err}
}
