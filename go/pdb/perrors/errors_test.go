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

package perrors

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	require.Nil(t, Wrap(nil, "no error"))
	require.Nil(t, Wrapf(nil, "no error %d", 1))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		err         error
		message     string
		wantMessage string
		wantCode    ErrCode
	}{
		{io.EOF, "read error", "read error: EOF", CodeUnknown},
		{New(CodeNotFound, "oops"), "catalog error", "catalog error: oops", CodeNotFound},
	}

	for _, tt := range tests {
		got := Wrap(tt.err, tt.message)
		require.EqualError(t, got, tt.wantMessage)
		require.Equal(t, tt.wantCode, Code(got))
	}
}

func TestCode(t *testing.T) {
	require.Equal(t, CodeOK, Code(nil))
	require.Equal(t, CodeUnknown, Code(io.EOF))
	require.Equal(t, CodeAborted, Code(New(CodeAborted, "deadlock")))
	require.Equal(t, CodeCanceled, Code(context.Canceled))
	require.Equal(t, CodeInternal, Code(Wrapf(Errorf(CodeInternal, "bad %s", "state"), "outer")))
}

func TestRootCause(t *testing.T) {
	inner := New(CodeFailedPrecondition, "error")
	require.Nil(t, RootCause(nil))
	require.Equal(t, io.EOF, RootCause(io.EOF))
	require.Equal(t, io.EOF, RootCause(Wrap(io.EOF, "ignored")))
	require.Equal(t, inner, RootCause(Wrap(Wrap(inner, "mid"), "outer")))
}

func TestCause(t *testing.T) {
	require.Nil(t, Cause(io.EOF))
	require.Equal(t, io.EOF, Cause(Wrap(io.EOF, "ignored")))
}

func TestErrorsIsCompatibility(t *testing.T) {
	sentinel := New(CodeFailedPrecondition, "insufficient freshness")
	wrapped := Wrapf(sentinel, "routing table %d", 42)
	require.True(t, errors.Is(wrapped, sentinel))
}
