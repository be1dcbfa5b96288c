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

package minipb

import (
	"fmt"

	"github.com/protocolbuffers/protoscope"

	"github.com/nizox/minipb/internal/arena"
)

// GoString renders m as protoscope text (github.com/protocolbuffers/
// protoscope's human-readable disassembly of the wire format), by
// re-encoding it into a scratch arena first. This is debug tooling only --
// %#v on a *Message in a failing test or a dbg.Log trace -- never called
// on any hot path.
func (m *Message) GoString() string {
	scratch := arena.New()
	buf, err := Encode(m, scratch)
	if err != nil {
		return fmt.Sprintf("<minipb.Message: encode failed: %v>", err)
	}
	return protoscope.Write(buf, protoscope.WriterOptions{})
}

func (f FieldType) GoString() string { return f.String() }
func (m FieldMode) GoString() string { return m.String() }
