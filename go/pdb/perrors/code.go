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

// ErrCode categorizes an error for callers that dispatch on failure kind
// rather than message text.
type ErrCode int

const (
	// CodeOK means no error.
	CodeOK ErrCode = iota

	// CodeUnknown is the code of errors that did not originate in this
	// code base and carry no code of their own.
	CodeUnknown

	// CodeInvalidArgument indicates the caller specified an invalid
	// argument, such as handing a DML tree to the DQL router.
	CodeInvalidArgument

	// CodeNotFound means a referenced entity does not exist in the
	// catalog snapshot.
	CodeNotFound

	// CodeFailedPrecondition means the operation was rejected because the
	// system is not in a state required for its execution, e.g. no
	// placement satisfies a freshness bound.
	CodeFailedPrecondition

	// CodeAborted indicates the operation was aborted, typically due to a
	// concurrency issue such as a deadlock.
	CodeAborted

	// CodeResourceExhausted means a quota or capacity limit was hit.
	CodeResourceExhausted

	// CodeCanceled means the operation was canceled, usually by the
	// transaction it ran under.
	CodeCanceled

	// CodeInternal means an invariant expected by the underlying system
	// was broken.
	CodeInternal
)

var codeNames = map[ErrCode]string{
	CodeOK:                 "OK",
	CodeUnknown:            "UNKNOWN",
	CodeInvalidArgument:    "INVALID_ARGUMENT",
	CodeNotFound:           "NOT_FOUND",
	CodeFailedPrecondition: "FAILED_PRECONDITION",
	CodeAborted:            "ABORTED",
	CodeResourceExhausted:  "RESOURCE_EXHAUSTED",
	CodeCanceled:           "CANCELED",
	CodeInternal:           "INTERNAL",
}

func (c ErrCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// ErrorWithCode is implemented by errors that carry a Code.
type ErrorWithCode interface {
	ErrorCode() ErrCode
}
