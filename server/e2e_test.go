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

// e2e_test.go runs full client/server scenarios over loopback TCP:
// echo and fault round trips, the request size cap, keep-alive reuse,
// idle eviction and introspection.
package server_test

import (
	"time"

	"github.com/nabbar/xmlrpc/client"
	"github.com/nabbar/xmlrpc/dispatch"
	"github.com/nabbar/xmlrpc/executor"
	"github.com/nabbar/xmlrpc/inetaddr"
	"github.com/nabbar/xmlrpc/server"
	libvlu "github.com/nabbar/xmlrpc/value"
	"github.com/nabbar/xmlrpc/xmlcodec"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// startServer binds a loopback server on an ephemeral port, runs its
// work loop in the background and returns it with the bound address.
func startServer(cfg func(s server.Server)) (server.Server, inetaddr.Addr, chan struct{}) {
	bind, err := inetaddr.New("127.0.0.1", 0)
	Expect(err).ToNot(HaveOccurred())

	srv, err := server.New(bind, executor.NewSerial(), nil)
	Expect(err).ToNot(HaveOccurred())

	srv.RegisterFunc("echo", func(_ dispatch.Data, p libvlu.Params) (libvlu.Value, error) {
		if len(p) == 0 {
			return libvlu.Nil(), nil
		}
		return p[0], nil
	})

	if cfg != nil {
		cfg(srv)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Work()
	}()

	var bound inetaddr.Addr
	Eventually(func() error {
		var e error
		bound, e = srv.BoundAddr()
		if e != nil {
			return e
		}
		return nil
	}, "2s", "10ms").Should(Succeed())

	return srv, bound, done
}

func stopServer(srv server.Server, done chan struct{}) {
	srv.SetExitFlag()
	Eventually(done, "5s").Should(BeClosed())
}

var _ = Describe("End to end over plain HTTP", func() {
	It("should round-trip an echo call", func() {
		srv, bound, done := startServer(nil)
		defer stopServer(srv, done)

		s := libvlu.Struct()
		s.Insert("a", libvlu.Int(1))
		s.Insert("b", libvlu.String("str"))

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()

		resp, err := c.Execute("echo", libvlu.Params{s}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.IsFault()).To(BeFalse())

		v, verr := resp.Value()
		Expect(verr).ToNot(HaveOccurred())
		Expect(v.IsStruct()).To(BeTrue())

		fa, _ := v.Field("a")
		Expect(fa.MustInt()).To(Equal(int32(1)))
		fb, _ := v.Field("b")
		Expect(fb.MustString()).To(Equal("str"))
	})

	It("should round-trip a fault", func() {
		srv, bound, done := startServer(func(s server.Server) {
			s.RegisterFunc("fail", func(_ dispatch.Data, _ libvlu.Params) (libvlu.Value, error) {
				return libvlu.Value{}, xmlcodec.Fault{Code: 42, Message: "nope"}
			})
		})
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()

		resp, err := c.Execute("fail", nil, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.IsFault()).To(BeTrue())
		Expect(resp.FaultCode()).To(Equal(int32(42)))
		Expect(resp.FaultString()).To(Equal("nope"))
	})

	It("should answer 413 beyond the request size cap", func() {
		srv, bound, done := startServer(func(s server.Server) {
			s.SetMaxRequestSize(1024)
		})
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()

		big := make([]byte, 2000)
		for i := range big {
			big[i] = 'x'
		}

		_, err := c.Execute("echo", libvlu.Params{libvlu.String(string(big))}, nil)
		Expect(err).To(HaveOccurred())

		st, ok := client.ResponseStatusOf(err)
		Expect(ok).To(BeTrue())
		Expect(st.Code).To(Equal(413))
	})

	It("should carry two keep-alive calls over one connection", func() {
		srv, bound, done := startServer(nil)
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()
		c.SetKeepAlive(true)

		resp, err := c.Execute("echo", libvlu.Params{libvlu.Int(1)}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.IsFault()).To(BeFalse())

		Eventually(srv.ConnectionCount, "2s").Should(Equal(1))

		resp, err = c.Execute("echo", libvlu.Params{libvlu.Int(2)}, nil)
		Expect(err).ToNot(HaveOccurred())
		v, _ := resp.Value()
		Expect(v.MustInt()).To(Equal(int32(2)))

		Expect(srv.ConnectionCount()).To(Equal(1))

		c.Close()
		Eventually(srv.ConnectionCount, "2s").Should(Equal(0))
	})

	It("should evict idle keep-alive connections and recover", func() {
		srv, bound, done := startServer(func(s server.Server) {
			s.SetIdleTimeout(100 * time.Millisecond)
		})
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()
		c.SetKeepAlive(true)

		_, err := c.Execute("echo", libvlu.Params{libvlu.Int(1)}, nil)
		Expect(err).ToNot(HaveOccurred())

		Eventually(srv.ConnectionCount, "3s", "50ms").Should(Equal(0))

		resp, err := c.Execute("echo", libvlu.Params{libvlu.Int(2)}, nil)
		Expect(err).ToNot(HaveOccurred())
		v, _ := resp.Value()
		Expect(v.MustInt()).To(Equal(int32(2)))
	})

	It("should enumerate methods through introspection", func() {
		srv, bound, done := startServer(func(s server.Server) {
			s.RegisterFunc("foo", func(_ dispatch.Data, _ libvlu.Params) (libvlu.Value, error) {
				return libvlu.Nil(), nil
			})
			s.RegisterFunc("bar", func(_ dispatch.Data, _ libvlu.Params) (libvlu.Value, error) {
				return libvlu.Nil(), nil
			})
			s.EnableIntrospection()
		})
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()

		resp, err := c.Execute("system.listMethods", nil, nil)
		Expect(err).ToNot(HaveOccurred())

		v, verr := resp.Value()
		Expect(verr).ToNot(HaveOccurred())
		Expect(v.IsArray()).To(BeTrue())

		var names []string
		for i := 0; i < v.Len(); i++ {
			item, _ := v.Index(i)
			names = append(names, item.MustString())
		}

		Expect(names).To(ConsistOf("echo", "foo", "bar", "system.listMethods"))
	})

	It("should answer an unknown method with the matching fault", func() {
		srv, bound, done := startServer(nil)
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()

		resp, err := c.Execute("no.such.method", nil, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.IsFault()).To(BeTrue())
		Expect(resp.FaultCode()).To(Equal(int32(xmlcodec.FaultUnknownMethod)))
	})

	It("should reject bad credentials with 401", func() {
		srv, bound, done := startServer(func(s server.Server) {
			s.SetAuthPlugin(server.UserMapAuth{Users: map[string]string{"alice": "pw"}})
		})
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()
		c.SetAuthInfo("alice", "wrong")

		_, err := c.Execute("echo", nil, nil)
		Expect(err).To(HaveOccurred())

		st, ok := client.ResponseStatusOf(err)
		Expect(ok).To(BeTrue())
		Expect(st.Code).To(Equal(401))
	})

	It("should admit valid credentials and pass the auth name through", func() {
		srv, bound, done := startServer(func(s server.Server) {
			s.SetAuthPlugin(server.UserMapAuth{Users: map[string]string{"alice": "pw"}})
			s.RegisterFunc("whoami", func(d dispatch.Data, _ libvlu.Params) (libvlu.Value, error) {
				return libvlu.String(d.AuthName), nil
			})
		})
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()
		c.SetAuthInfo("alice", "pw")

		resp, err := c.Execute("whoami", nil, nil)
		Expect(err).ToNot(HaveOccurred())
		v, _ := resp.Value()
		Expect(v.MustString()).To(Equal("alice"))
	})

	It("should let interceptors rewrite the result", func() {
		srv, bound, done := startServer(func(s server.Server) {
			s.PushInterceptor(server.InterceptorFunc(func(ctx dispatch.Data, p libvlu.Params, yield server.Yield) (libvlu.Value, error) {
				v, err := yield(ctx, p)
				if err != nil {
					return v, err
				}
				return libvlu.String("intercepted"), nil
			}))
		})
		defer stopServer(srv, done)

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()

		resp, err := c.Execute("echo", libvlu.Params{libvlu.Int(5)}, nil)
		Expect(err).ToNot(HaveOccurred())
		v, _ := resp.Value()
		Expect(v.MustString()).To(Equal("intercepted"))
	})
})

var _ = Describe("End to end with the pool executor", func() {
	It("should serve calls executed on worker goroutines", func() {
		bind, err := inetaddr.New("127.0.0.1", 0)
		Expect(err).ToNot(HaveOccurred())

		pool := executor.NewPool(4, nil)
		defer pool.Close()

		srv, serr := server.New(bind, pool, nil)
		Expect(serr).ToNot(HaveOccurred())

		srv.RegisterFunc("echo", func(_ dispatch.Data, p libvlu.Params) (libvlu.Value, error) {
			return p[0], nil
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = srv.Work()
		}()

		var bound inetaddr.Addr
		Eventually(func() error {
			var e error
			bound, e = srv.BoundAddr()
			return e
		}, "2s", "10ms").Should(Succeed())

		c := client.New(bound, "/RPC", "", nil)
		defer c.Close()

		for i := int32(0); i < 5; i++ {
			resp, cerr := c.Execute("echo", libvlu.Params{libvlu.Int(i)}, nil)
			Expect(cerr).ToNot(HaveOccurred())
			v, _ := resp.Value()
			Expect(v.MustInt()).To(Equal(i))
		}

		srv.SetExitFlag()
		Eventually(done, "5s").Should(BeClosed())
	})
})
