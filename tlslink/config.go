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

// Package tlslink integrates the TLS layer with the connection engine.
//
// Two interfaces are exposed per connection mode: a blocking path with
// typed errors for synchronous clients, and a reactive path returning
// discriminated status codes that convert into reactor register and
// unregister calls without raising on the hot loop.
//
// Configuration is carried by the certificates package; this package
// enforces the runtime contract: minimum protocol TLS 1.2, AEAD cipher
// preference with the server enforcing its own order, per-connection
// hostname verification with SNI and exact wildcard matching, and
// optional SHA-256 certificate pinning.
package tlslink

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"strings"

	liberr "github.com/nabbar/golib/errors"
	libtls "github.com/nabbar/golib/certificates"
)

// aeadSuites is the TLS 1.2 cipher preference: AES-GCM first for
// hardware acceleration, ChaCha20-Poly1305 for the rest. TLS 1.3 suites
// are fixed by the runtime and already AEAD-only.
var aeadSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// Config carries the per-endpoint TLS settings on top of the
// certificates configuration.
type Config struct {
	// TLS is the certificate, CA and version configuration.
	TLS libtls.Config `json:"tls" yaml:"tls" toml:"tls" mapstructure:"tls"`

	// ExpectedHostname enables per-connection hostname verification: SNI
	// is installed and the certificate must match the name exactly, with
	// no partial wildcard. Empty falls back to the context-level server
	// name.
	ExpectedHostname string `json:"expected_hostname,omitempty" yaml:"expected_hostname,omitempty" toml:"expected_hostname,omitempty" mapstructure:"expected_hostname,omitempty"`

	// Fingerprint pins the peer certificate to a 64-character lowercase
	// hex SHA-256. Empty disables pinning.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty" toml:"fingerprint,omitempty" mapstructure:"fingerprint,omitempty" validate:"omitempty,len=64,hexadecimal"`

	// SkipVerify disables certificate chain verification, for tests
	// against self-signed endpoints. Pinning still applies when set.
	SkipVerify bool `json:"skip_verify,omitempty" yaml:"skip_verify,omitempty" toml:"skip_verify,omitempty" mapstructure:"skip_verify,omitempty"`
}

// ServerTLS builds the server-side runtime config: own cipher order,
// TLS 1.2 floor.
func (o Config) ServerTLS() (*tls.Config, liberr.Error) {
	t, e := o.TLS.New()
	if e != nil {
		return nil, e
	}

	c := t.TlsConfig("")

	if len(c.Certificates) == 0 {
		return nil, ErrorConfig.Error(nil)
	}

	harden(c)
	c.PreferServerCipherSuites = true

	return c, nil
}

// ClientTLS builds the client-side runtime config with hostname
// verification and optional pinning.
func (o Config) ClientTLS(serverName string) (*tls.Config, liberr.Error) {
	name := o.ExpectedHostname
	if name == "" {
		name = serverName
	}

	t, e := o.TLS.New()
	if e != nil {
		return nil, e
	}

	c := t.TlsConfig(name)
	harden(c)

	c.ServerName = name

	if o.SkipVerify {
		c.InsecureSkipVerify = true

		if name != "" {
			// chain trust is waived, hostname verification is not
			c.VerifyPeerCertificate = verifyHostnameOnly(name, o.Fingerprint)
			return c, nil
		}
	}

	if o.Fingerprint != "" {
		fp := strings.ToLower(o.Fingerprint)

		if _, err := hex.DecodeString(fp); err != nil || len(fp) != 64 {
			return nil, ErrorConfig.Error(err)
		}

		prev := c.VerifyPeerCertificate
		c.VerifyPeerCertificate = func(raw [][]byte, chains [][]*x509.Certificate) error {
			if prev != nil {
				if err := prev(raw, chains); err != nil {
					return err
				}
			}
			return checkFingerprint(raw, fp)
		}
	}

	return c, nil
}

func harden(c *tls.Config) {
	if c.MinVersion < tls.VersionTLS12 {
		c.MinVersion = tls.VersionTLS12
	}

	if len(c.CipherSuites) == 0 {
		c.CipherSuites = append([]uint16(nil), aeadSuites...)
	}
}

// checkFingerprint compares the SHA-256 of the presented leaf
// certificate against the configured 64-character lowercase hex.
func checkFingerprint(raw [][]byte, want string) error {
	if len(raw) == 0 {
		return ErrorFingerprint.Error(nil)
	}

	sum := sha256.Sum256(raw[0])

	if hex.EncodeToString(sum[:]) != want {
		return ErrorFingerprint.Error(nil)
	}

	return nil
}

// verifyHostnameOnly checks the certificate name, exact wildcard rules
// only, used when chain verification is waived.
func verifyHostnameOnly(name, fingerprint string) func([][]byte, [][]*x509.Certificate) error {
	return func(raw [][]byte, _ [][]*x509.Certificate) error {
		if len(raw) == 0 {
			return ErrorHostname.Error(nil)
		}

		cert, err := x509.ParseCertificate(raw[0])
		if err != nil {
			return ErrorHostname.Error(err)
		}

		if strings.Contains(name, "*") {
			// a partial wildcard in the expected name is never admitted
			return ErrorHostname.Error(nil)
		}

		if err = cert.VerifyHostname(name); err != nil {
			return ErrorHostname.Error(err)
		}

		if fingerprint != "" {
			return checkFingerprint(raw, strings.ToLower(fingerprint))
		}

		return nil
	}
}
