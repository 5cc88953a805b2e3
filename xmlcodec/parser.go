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

// Package xmlcodec implements the streaming XML-RPC codec: a pull parser
// driven by per-production state machines over a builder stack, and the
// matching writer producing canonical XML-RPC.
//
// Hardening lives in the parser wrapper, not in the builders: nesting
// depth is capped at 32, the total element count per document is capped
// parser-wide across sub-builders, entity substitution beyond the XML
// predefined set is rejected, no external fetch ever happens, and a
// payload whose byte length does not fit a signed 32-bit count is refused
// before parsing starts.
//
// A namespace prefix is stripped at the ':', so an element named ns:value
// is processed as value. Element names with more than one ':' (a:b:c) are
// rejected by the encoding/xml tokenizer and fail with ErrorParse.
package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"io"
	"math"
	"strings"

	liberr "github.com/nabbar/golib/errors"
)

const (
	// MaxParseDepth bounds XML nesting. XML-RPC needs about ten levels;
	// 32 is generous for legitimate use.
	MaxParseDepth = 32

	// MaxElementCount bounds the total elements of one document, counted
	// across all sub-builders.
	MaxElementCount = 65536
)

type parseStep struct {
	done       bool
	elemBegin  bool
	elemEnd    bool
	isText     bool
	tag        string
	text       string
}

// Parser is the pull-style token source shared by the builder stack of
// one document.
type Parser struct {
	dec        *xml.Decoder
	curr       parseStep
	pushedBack bool
	elemCount  int
	xmlDepth   int
	path       []string
}

// NewParser wraps the payload. The decoder operates in strict mode: any
// entity outside the XML predefined set is a parse error, and no external
// resource is ever fetched.
func NewParser(buf []byte) (*Parser, liberr.Error) {
	if len(buf) > math.MaxInt32 {
		return nil, ErrorParseSize.Error(nil)
	}

	d := xml.NewDecoder(bytes.NewReader(buf))
	d.Strict = true

	return &Parser{dec: d}, nil
}

// Context returns an XPath-style rendering of the current position, used
// in violation messages.
func (o *Parser) Context() string {
	if len(o.path) == 0 {
		return "/"
	}

	return "/" + strings.Join(o.path, "/")
}

// ElementCount returns the elements seen so far in the document.
func (o *Parser) ElementCount() int {
	return o.elemCount
}

func stripPrefix(n xml.Name) string {
	// encoding/xml splits at the colon; Space holds the prefix (bound or
	// not) and Local the remainder. Names with more than one colon never
	// reach here: the tokenizer reports them as a syntax error.
	return n.Local
}

func (o *Parser) read() (parseStep, liberr.Error) {
	if o.pushedBack {
		o.pushedBack = false
		return o.curr, nil
	}

	for {
		tok, err := o.dec.Token()

		if err == io.EOF {
			o.curr = parseStep{done: true}
			return o.curr, nil
		} else if err != nil {
			return parseStep{}, ErrorParse.Error(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			tag := stripPrefix(t.Name)
			o.xmlDepth++
			o.path = append(o.path, tag)
			o.curr = parseStep{elemBegin: true, tag: tag}
			return o.curr, nil

		case xml.EndElement:
			tag := stripPrefix(t.Name)
			if o.xmlDepth > 0 {
				o.xmlDepth--
			}
			if len(o.path) > 0 {
				o.path = o.path[:len(o.path)-1]
			}
			o.curr = parseStep{elemEnd: true, tag: tag}
			return o.curr, nil

		case xml.CharData:
			s := string(t)
			if strings.TrimSpace(s) == "" {
				// inter-element indentation is not significant text
				continue
			}
			o.curr = parseStep{isText: true, text: s}
			return o.curr, nil

		default:
			// comments, directives, processing instructions
			continue
		}
	}
}

func (o *Parser) pushBack() {
	o.pushedBack = true
}

// enterElement enforces the parser-wide hardening caps on every element
// open.
func (o *Parser) enterElement() liberr.Error {
	o.elemCount++
	if o.elemCount > MaxElementCount {
		return ErrorParseCount.Error(nil)
	}

	if o.xmlDepth > MaxParseDepth {
		return ErrorParseDepth.Error(nil)
	}

	return nil
}

// ReadText consumes the next token expecting character data. An element
// end instead yields the empty string and is pushed back for the builder
// loop.
func (o *Parser) ReadText() (string, liberr.Error) {
	if o.curr.isText {
		return o.curr.text, nil
	}

	step, e := o.read()
	if e != nil {
		return "", e
	}

	if step.isText {
		return step.text, nil
	} else if step.elemEnd {
		o.pushBack()
		return "", nil
	}

	return "", o.violation("text is expected")
}

func (o *Parser) violation(msg string) liberr.Error {
	//nolint #goerr113
	return ErrorViolation.Error(newCtxErr(msg + " at " + o.Context()))
}

type ctxErr string

func newCtxErr(s string) error { return ctxErr(s) }

func (e ctxErr) Error() string { return string(e) }

//
// Builder
//

// Builder is one node of the builder stack mirroring XML nesting.
type Builder interface {
	Base() *BuilderBase

	OnElement(tag string) liberr.Error
	OnElementEnd(tag string) liberr.Error
	OnText(text string) liberr.Error
}

// BuilderBase carries the per-builder parse cursor: the relative depth
// inside the production and the exit request flag.
type BuilderBase struct {
	parser     *Parser
	depth      int
	expectText bool
	wantExit   bool
}

func NewBuilderBase(p *Parser, expectText bool) BuilderBase {
	return BuilderBase{parser: p, expectText: expectText}
}

func (o *BuilderBase) Parser() *Parser {
	return o.parser
}

func (o *BuilderBase) WantExit() {
	o.wantExit = true
}

// Violation builds an XML-RPC violation error carrying the parser
// context.
func (o *BuilderBase) Violation() liberr.Error {
	return o.parser.violation("unexpected content")
}

// Build drives the builder until its production closes. A flat build
// starts below an already-consumed opening tag, as used for struct and
// array bodies.
func Build(b Builder, flat bool) liberr.Error {
	base := b.Base()
	if flat {
		base.depth++
	}

	p := base.parser

	for {
		step, e := p.read()
		if e != nil {
			return e
		} else if step.done {
			return nil
		}

		if step.elemBegin {
			if e = p.enterElement(); e != nil {
				return e
			}

			base.depth++

			if e = b.OnElement(step.tag); e != nil {
				return e
			}
		} else if step.elemEnd {
			if base.depth == 0 {
				p.pushBack()
				return nil
			}

			base.depth--

			if e = b.OnElementEnd(step.tag); e != nil {
				return e
			}

			if base.depth == 0 {
				base.wantExit = true
			}
		} else if step.isText && base.expectText {
			if e = b.OnText(step.text); e != nil {
				return e
			}
		}

		if base.wantExit {
			return nil
		}
	}
}

//
// State machine
//

// Transition is one admissible (state, tag) → state edge of a
// production's grammar.
type Transition struct {
	Prev int
	Next int
	Tag  string
}

// StateMachine validates tag order against a transition table. An
// unexpected tag is an XML-RPC violation carrying the parser context.
type StateMachine struct {
	parser *Parser
	curr   int
	trans  []Transition
}

func NewStateMachine(p *Parser, start int, trans []Transition) StateMachine {
	return StateMachine{parser: p, curr: start, trans: trans}
}

func (o *StateMachine) State() int {
	return o.curr
}

func (o *StateMachine) SetState(s int) {
	o.curr = s
}

func (o *StateMachine) Change(tag string) (int, liberr.Error) {
	for i := range o.trans {
		if o.trans[i].Tag == tag && o.trans[i].Prev == o.curr {
			o.curr = o.trans[i].Next
			return o.curr, nil
		}
	}

	return 0, o.parser.violation("unexpected tag <" + tag + ">")
}
