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

package firewall

import (
	"fmt"

	libval "github.com/go-playground/validator/v10"
	liberr "github.com/nabbar/golib/errors"
)

const pkgName = "xmlrpc/firewall"

const (
	ErrorValidatorError liberr.CodeError = iota + liberr.MinAvailable + 30
)

func init() {
	if liberr.ExistInMapMessage(ErrorValidatorError) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorValidatorError, func(code liberr.CodeError) string {
		if code == ErrorValidatorError {
			return "invalid firewall config"
		}
		return liberr.NullMessage
	})
}

// Config describes the bundled rate-limiting firewall. Zero values mean
// unlimited for each ceiling.
type Config struct {
	// MaxPerIP caps concurrent connections from one IP.
	MaxPerIP uint `json:"max_per_ip" yaml:"max_per_ip" toml:"max_per_ip" mapstructure:"max_per_ip"`

	// MaxTotal caps concurrent connections across all peers.
	MaxTotal uint `json:"max_total" yaml:"max_total" toml:"max_total" mapstructure:"max_total"`

	// MaxRequestRate caps requests per second per IP.
	MaxRequestRate uint `json:"max_request_rate" yaml:"max_request_rate" toml:"max_request_rate" mapstructure:"max_request_rate"`

	// RejectMessage is sent to rejected peers before the abortive close.
	// Empty means silent close.
	RejectMessage string `json:"reject_message,omitempty" yaml:"reject_message,omitempty" toml:"reject_message,omitempty" mapstructure:"reject_message,omitempty" validate:"excludesall=\r\n"`
}

func (o Config) Validate() liberr.Error {
	var e = ErrorValidatorError.Error(nil)

	if err := libval.New().Struct(o); err != nil {
		if er, ok := err.(*libval.InvalidValidationError); ok {
			e.Add(er)
		}

		for _, er := range err.(libval.ValidationErrors) {
			//nolint #goerr113
			e.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", er.Namespace(), er.ActualTag()))
		}
	}

	if !e.HasParent() {
		e = nil
	}

	return e
}
