// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dbg provides a zero-cost-when-disabled tracing logger used by the
// arena and the wire codec to trace allocation and parse decisions.
//
// Tracing is gated behind the Enabled variable, set from the MINIPB_DEBUG
// environment variable at startup; when it is false, Log returns after a
// single branch without formatting anything.
package dbg

import (
	"fmt"
	"os"
)

// Enabled controls whether Log actually writes anything. It is a plain var,
// not a build tag, so tests can flip it on for a single assertion without a
// second build of the package.
var Enabled = os.Getenv("MINIPB_DEBUG") != ""

// Formatter is a fmt.Formatter implementation that defers formatting until
// the value is actually printed, so callers can pass arbitrarily expensive
// values to Log without paying for them when tracing is off.
type Formatter func(s fmt.State)

// Format implements fmt.Formatter.
func (f Formatter) Format(s fmt.State, verb rune) {
	if verb != 'v' {
		fmt.Fprintf(s, "%%%c(%T)", verb, f)
		return
	}
	f(s)
}

func (f Formatter) String() string { return fmt.Sprint(f) }

// Fprintf defers formatting of format/args until the returned value is
// itself formatted.
func Fprintf(format string, args ...any) Formatter {
	return Formatter(func(s fmt.State) { fmt.Fprintf(s, format, args...) })
}

// Log writes a trace line of the form "<header> <op>: <format>" to stderr,
// when Enabled is true. header is a set of arguments rendered before op;
// passing nil omits it.
func Log(header []any, op, format string, args ...any) {
	if !Enabled {
		return
	}
	if len(header) > 0 {
		h := header[0].(string)
		fmt.Fprintf(os.Stderr, h+" ", header[1:]...)
	}
	fmt.Fprintf(os.Stderr, "%s: "+format+"\n", append([]any{op}, args...)...)
}
