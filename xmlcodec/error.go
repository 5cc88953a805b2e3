/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package xmlcodec

import (
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

const pkgName = "xmlrpc/xmlcodec"

const (
	ErrorParse liberr.CodeError = iota + liberr.MinAvailable + 60
	ErrorParseDepth
	ErrorParseCount
	ErrorParseSize
	ErrorViolation
	ErrorMethodNameLength
	ErrorBuild
)

func init() {
	if liberr.ExistInMapMessage(ErrorParse) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorParse, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case ErrorParse:
		return "xml parser error"
	case ErrorParseDepth:
		return "maximum xml depth exceeded"
	case ErrorParseCount:
		return "maximum xml element count exceeded"
	case ErrorParseSize:
		return "xml payload exceeds maximum supported size"
	case ErrorViolation:
		return "xml-rpc violation"
	case ErrorMethodNameLength:
		return "method name exceeds maximum length"
	case ErrorBuild:
		return "xml build error"
	}

	return liberr.NullMessage
}

// XML-RPC fault codes, conformant to the Fault Code Interoperability
// specification (20010516).
const (
	FaultParse         = -32700
	FaultViolation     = -32600
	FaultUnknownMethod = -32601
	FaultInvalidParams = -32602
	FaultBuild         = -32705
	FaultApplication   = -32500
	FaultUnspecified   = -32000
)

// FaultCodeOf maps a codec error onto the XML-RPC fault code carried back
// to the caller.
func FaultCodeOf(e liberr.Error) int32 {
	if e == nil {
		return 0
	}

	switch {
	case e.IsCode(ErrorParse), e.IsCode(ErrorParseDepth), e.IsCode(ErrorParseCount), e.IsCode(ErrorParseSize):
		return FaultParse
	case e.IsCode(ErrorViolation), e.IsCode(ErrorMethodNameLength):
		return FaultViolation
	case e.IsCode(ErrorBuild):
		return FaultBuild
	}

	return FaultUnspecified
}
