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

package dispatch

import (
	"fmt"
	"strings"

	liberr "github.com/nabbar/golib/errors"
)

const pkgName = "xmlrpc/dispatch"

const (
	ErrorUnknownMethod liberr.CodeError = iota + liberr.MinAvailable + 100
	ErrorInvalidParams
)

func init() {
	if liberr.ExistInMapMessage(ErrorUnknownMethod) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorUnknownMethod, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case ErrorUnknownMethod:
		return "method not found"
	case ErrorInvalidParams:
		return "invalid method parameters"
	}

	return liberr.NullMessage
}

// sanitizedNameLen bounds what an adversarial method name may contribute
// to an error message or a log line.
const sanitizedNameLen = 128

// SanitizeMethodName strips everything but alphanumerics, dots,
// underscores and colons and truncates at 128 bytes with an ellipsis, so
// an adversarial name can neither flood logs nor inject content into
// them.
func SanitizeMethodName(name string) string {
	var b strings.Builder
	b.Grow(min(len(name), sanitizedNameLen))

	for i := 0; i < len(name) && b.Len() < sanitizedNameLen; i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '.' || c == '_' || c == ':' {
			b.WriteByte(c)
		}
	}

	if len(name) > sanitizedNameLen {
		b.WriteString("...")
	}

	return b.String()
}

func unknownMethod(name string) liberr.Error {
	//nolint #goerr113
	return ErrorUnknownMethod.Error(fmt.Errorf("method '%s' not found", SanitizeMethodName(name)))
}
