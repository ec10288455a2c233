/*
Copyright 2022 The Polypheny Project

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package perrors provides the error type used across the routing core.
//
// Errors carry a Code so that callers can dispatch on the failure kind
// without string matching. Wrapping preserves the cause chain and the
// code of the innermost coded error:
//
//	err := perrors.Errorf(perrors.CodeNotFound, "no table with id %d", id)
//	err = perrors.Wrap(err, "routing scan")
//	perrors.Code(err) // CodeNotFound
package perrors

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// New returns an error with the supplied message and code.
func New(code ErrCode, message string) error {
	return &fundamental{
		msg:  message,
		code: code,
	}
}

// Errorf formats according to a format specifier and returns the string
// as a value that satisfies error.
func Errorf(code ErrCode, format string, args ...any) error {
	return &fundamental{
		msg:  fmt.Sprintf(format, args...),
		code: code,
	}
}

type fundamental struct {
	msg  string
	code ErrCode
}

func (f *fundamental) Error() string { return f.msg }

func (f *fundamental) ErrorCode() ErrCode { return f.code }

func (f *fundamental) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		_, _ = io.WriteString(s, f.msg)
	case 'q':
		fmt.Fprintf(s, "%q", f.msg)
	}
}

// Wrap returns an error annotating err with a new message.
// If err is nil, Wrap returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   message,
	}
}

// Wrapf returns an error annotating err with the format specifier.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   fmt.Sprintf(format, args...),
	}
}

type wrapping struct {
	cause error
	msg   string
}

func (w *wrapping) Error() string { return w.msg + ": " + w.cause.Error() }

func (w *wrapping) Cause() error { return w.cause }

func (w *wrapping) Unwrap() error { return w.cause }

// Code returns the error code if it's a coded error. If not, it returns
// CodeCanceled for context cancellation and deadline errors, CodeUnknown
// for other non-nil errors, and CodeOK for nil.
func Code(err error) ErrCode {
	if err == nil {
		return CodeOK
	}
	var coded ErrorWithCode
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	// Handle some special non-library errors.
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeCanceled
	}
	return CodeUnknown
}

type causer interface {
	Cause() error
}

// Cause returns the underlying cause of the error, if possible.
// If the error does not implement Cause, nil is returned.
func Cause(err error) error {
	if c, ok := err.(causer); ok {
		return c.Cause()
	}
	return nil
}

// RootCause walks the cause chain to its end and returns the innermost
// error. An error without a cause is its own root cause.
func RootCause(err error) error {
	for {
		cause := Cause(err)
		if cause == nil {
			return err
		}
		err = cause
	}
}
