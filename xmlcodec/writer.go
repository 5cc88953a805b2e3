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
	"strconv"
	"strings"

	"github.com/nabbar/xmlrpc/safenum"
	libvlu "github.com/nabbar/xmlrpc/value"
)

// Writer builds one canonical UTF-8 XML-RPC document. Nodes close on
// Close, guaranteeing balanced tags; the usual call shape is
//
//	n := w.Open("params")
//	defer n.Close()
type Writer struct {
	sb strings.Builder
}

// NewWriter emits the prolog.
func NewWriter() *Writer {
	w := &Writer{}
	w.sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	return w
}

// Node is an open element that closes on scope exit.
type Node struct {
	w   *Writer
	tag string
}

func (o *Writer) Open(tag string) Node {
	o.sb.WriteByte('<')
	o.sb.WriteString(tag)
	o.sb.WriteByte('>')
	return Node{w: o, tag: tag}
}

func (n Node) Close() {
	n.w.sb.WriteString("</")
	n.w.sb.WriteString(n.tag)
	n.w.sb.WriteByte('>')
}

// Empty writes a self-closed element.
func (o *Writer) Empty(tag string) {
	o.sb.WriteByte('<')
	o.sb.WriteString(tag)
	o.sb.WriteString("/>")
}

// Text writes escaped character data.
func (o *Writer) Text(s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			o.sb.WriteString("&amp;")
		case '<':
			o.sb.WriteString("&lt;")
		case '>':
			o.sb.WriteString("&gt;")
		default:
			o.sb.WriteByte(s[i])
		}
	}
}

// TextNode writes <tag>escaped</tag>.
func (o *Writer) TextNode(tag, s string) {
	n := o.Open(tag)
	o.Text(s)
	n.Close()
}

// String returns the document built so far.
func (o *Writer) String() string {
	return o.sb.String()
}

// WriteValue serializes one value wrapped in <value>. In server mode the
// process-wide omit-string-tag option may drop the <string> wrapper so a
// response renders <value>text</value>.
func (o *Writer) WriteValue(v libvlu.Value, serverMode bool) {
	n := o.Open("value")
	defer n.Close()

	o.writeVariant(v, serverMode)
}

func (o *Writer) writeVariant(v libvlu.Value, serverMode bool) {
	switch v.Kind() {
	case libvlu.KindNil:
		o.Empty("nil")

	case libvlu.KindInt:
		i, _ := v.AsInt()
		o.TextNode("i4", strconv.FormatInt(int64(i), 10))

	case libvlu.KindInt64:
		i, _ := v.AsInt64()
		o.TextNode("i8", strconv.FormatInt(i, 10))

	case libvlu.KindBool:
		b, _ := v.AsBool()
		if b {
			o.TextNode("boolean", "1")
		} else {
			o.TextNode("boolean", "0")
		}

	case libvlu.KindDouble:
		d, _ := v.AsDouble()
		o.TextNode("double", safenum.FormatFloat(d))

	case libvlu.KindString:
		s, _ := v.AsString()
		if serverMode && libvlu.OmitStringTag() {
			o.Text(s)
		} else {
			o.TextNode("string", s)
		}

	case libvlu.KindBinary:
		b, _ := v.AsBinary()
		o.TextNode("base64", b.Base64())

	case libvlu.KindDateTime:
		d, _ := v.AsDateTime()
		o.TextNode("dateTime.iso8601", d.String())

	case libvlu.KindArray:
		na := o.Open("array")
		nd := o.Open("data")
		for i := 0; i < v.Len(); i++ {
			item, _ := v.Index(i)
			o.WriteValue(item, serverMode)
		}
		nd.Close()
		na.Close()

	case libvlu.KindStruct:
		ns := o.Open("struct")
		for _, name := range v.FieldNames() {
			nm := o.Open("member")
			o.TextNode("name", name)
			f, _ := v.Field(name)
			o.WriteValue(f, serverMode)
			nm.Close()
		}
		ns.Close()
	}
}
