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

package bootstrap

import "github.com/nizox/minipb"

// Field numbers below are exactly google/protobuf/compiler/plugin.proto's.
const (
	reqFileToGenerate   = 1
	reqParameter        = 2
	reqProtoFile        = 15
	reqCompilerVersion  = 3

	respError              = 1
	respSupportedFeatures  = 2
	respFile               = 15

	respFileName            = 1
	respFileInsertionPoint  = 2
	respFileContent         = 15

	versionMajor  = 1
	versionMinor  = 2
	versionPatch  = 3
	versionSuffix = 4
)

// The plugin-protocol message types (spec §6.3: the plugin driver, itself
// out of scope, speaks these over stdio using this core's codec).
var (
	Version                = new(minipb.MiniTable)
	CodeGeneratorRequest   = new(minipb.MiniTable)
	CodeGeneratorResponseFile = new(minipb.MiniTable)
	CodeGeneratorResponse  = new(minipb.MiniTable)
)

func init() {
	buildVersion()
	buildCodeGeneratorResponseFile()
	buildCodeGeneratorRequest()
	buildCodeGeneratorResponse()
}

func buildVersion() {
	l := newLayout()
	l.scalar(versionMajor, minipb.Int32)
	l.scalar(versionMinor, minipb.Int32)
	l.scalar(versionPatch, minipb.Int32)
	l.scalar(versionSuffix, minipb.String)
	fields, size, hb := l.finish()
	Version.Populate(fields, nil, size, hb, 0)
}

func buildCodeGeneratorResponseFile() {
	l := newLayout()
	l.scalar(respFileName, minipb.String)
	l.scalar(respFileInsertionPoint, minipb.String)
	l.scalar(respFileContent, minipb.String)
	fields, size, hb := l.finish()
	CodeGeneratorResponseFile.Populate(fields, nil, size, hb, 0)
}

func buildCodeGeneratorRequest() {
	l := newLayout()
	l.repeated(reqFileToGenerate, minipb.String)
	l.scalar(reqParameter, minipb.String)
	l.repeatedMessage(reqProtoFile, 0)
	l.message(reqCompilerVersion, 1)
	fields, size, hb := l.finish()
	CodeGeneratorRequest.Populate(fields, []*minipb.MiniTable{
		FileDescriptorProto,
		Version,
	}, size, hb, 0)
}

func buildCodeGeneratorResponse() {
	l := newLayout()
	l.scalar(respError, minipb.String)
	l.scalar(respSupportedFeatures, minipb.Uint64)
	l.repeatedMessage(respFile, 0)
	fields, size, hb := l.finish()
	CodeGeneratorResponse.Populate(fields, []*minipb.MiniTable{
		CodeGeneratorResponseFile,
	}, size, hb, 0)
}
