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

package safenum

import (
	"errors"
	"strconv"

	liberr "github.com/nabbar/golib/errors"
)

func parseErr(err error) liberr.Error {
	var ne *strconv.NumError
	if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
		return ErrorParseRange.Error(err)
	}

	return ErrorParseNumber.Error(err)
}

// ParseUint parses a strictly decimal unsigned integer. Any non-digit
// character, sign, empty input or trailing garbage is a parse error.
func ParseUint(s string) (uint, liberr.Error) {
	if len(s) == 0 {
		return 0, ErrorParseNumber.Error(nil)
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrorParseNumber.Error(nil)
		}
	}

	if v, err := strconv.ParseUint(s, 10, strconv.IntSize); err != nil {
		return 0, parseErr(err)
	} else {
		return uint(v), nil
	}
}

// ParseInt32 parses a signed decimal integer limited to 32 bits.
func ParseInt32(s string) (int32, liberr.Error) {
	if v, err := strconv.ParseInt(s, 10, 32); err != nil {
		return 0, parseErr(err)
	} else {
		return int32(v), nil
	}
}

// ParseInt64 parses a signed decimal integer limited to 64 bits.
func ParseInt64(s string) (int64, liberr.Error) {
	if v, err := strconv.ParseInt(s, 10, 64); err != nil {
		return 0, parseErr(err)
	} else {
		return v, nil
	}
}

// ParseFloat parses an IEEE-754 binary64 value, rejecting trailing garbage.
func ParseFloat(s string) (float64, liberr.Error) {
	if v, err := strconv.ParseFloat(s, 64); err != nil {
		return 0, parseErr(err)
	} else {
		return v, nil
	}
}

// FormatFloat renders a double with enough digits to round-trip exactly.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}

// FormatUint renders an unsigned decimal.
func FormatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
