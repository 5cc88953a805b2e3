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

package value

import (
	"fmt"
	"time"

	liberr "github.com/nabbar/golib/errors"
)

// DateTime is a broken-down calendar time in the 17-character XML-RPC
// form YYYYMMDDThh:mm:ss, with a lazily built string cache. Seconds up to
// 61 are admitted so leap seconds survive a round trip. There is no
// timezone on the wire; the fields are taken as given.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int

	cache string
}

// DateTimeNow captures the current time, UTC unless local is requested.
func DateTimeNow(local bool) *DateTime {
	t := time.Now()
	if !local {
		t = t.UTC()
	}

	return DateTimeFromTime(t)
}

// DateTimeFromTime converts a stdlib time, dropping sub-second precision.
func DateTimeFromTime(t time.Time) *DateTime {
	return &DateTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// ParseDateTime validates the exact positional form: positions 0-7, 9-10,
// 12-13 and 15-16 are decimal digits, position 8 is 'T', positions 11 and
// 14 are ':'. Month, day, hour, minute and second are range-checked.
func ParseDateTime(s string) (*DateTime, liberr.Error) {
	if len(s) != 17 || s[8] != 'T' {
		return nil, ErrorMalformedDatetime.Error(nil)
	}

	for i := 0; i < 17; i++ {
		switch i {
		case 8:
			continue
		case 11, 14:
			if s[i] != ':' {
				return nil, ErrorMalformedDatetime.Error(nil)
			}
		default:
			if s[i] < '0' || s[i] > '9' {
				return nil, ErrorMalformedDatetime.Error(nil)
			}
		}
	}

	num := func(start, ln int) int {
		v := 0
		for i := start; i < start+ln; i++ {
			v = v*10 + int(s[i]-'0')
		}
		return v
	}

	d := &DateTime{
		Year:   num(0, 4),
		Month:  num(4, 2),
		Day:    num(6, 2),
		Hour:   num(9, 2),
		Minute: num(12, 2),
		Second: num(15, 2),
	}

	if d.Month < 1 || d.Month > 12 ||
		d.Day < 1 || d.Day > 31 ||
		d.Hour > 23 || d.Minute > 59 || d.Second > 61 {
		return nil, ErrorMalformedDatetime.Error(nil)
	}

	d.cache = s
	return d, nil
}

// String renders the 17-character form, building the cache on first use.
func (o *DateTime) String() string {
	if o.cache == "" {
		o.cache = fmt.Sprintf("%04d%02d%02dT%02d:%02d:%02d",
			o.Year, o.Month, o.Day, o.Hour, o.Minute, o.Second)
	}

	return o.cache
}

// Time converts to a stdlib UTC time. Leap seconds normalize forward.
func (o *DateTime) Time() time.Time {
	return time.Date(o.Year, time.Month(o.Month), o.Day, o.Hour, o.Minute, o.Second, 0, time.UTC)
}
