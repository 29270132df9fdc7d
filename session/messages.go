// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/netwise-go/dctm/typedobject"
)

// Message severities. A message with SeverityError or higher is a real
// error; anything below is informational only.
const (
	SeverityInfo  = 0
	SeverityError = 3
)

// serverMessage is one decoded dmError-shaped TypedObject off GET_ERRORS:
// a name, a severity, and up to COUNT numbered positional substitutions.
type serverMessage struct {
	obj *typedobject.TypedObject
}

func (sf serverMessage) name() string {
	if av := sf.obj.Get("NAME"); av != nil {
		if s, ok := av.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (sf serverMessage) severity() int64 {
	if av := sf.obj.Get("SEVERITY"); av != nil {
		if n, ok := av.Value().(int64); ok {
			return n
		}
	}
	return SeverityInfo
}

func (sf serverMessage) count() int64 {
	if av := sf.obj.Get("COUNT"); av != nil {
		if n, ok := av.Value().(int64); ok {
			return n
		}
	}
	return 0
}

func (sf serverMessage) arg(i int64) string {
	if av := sf.obj.Get(strconv.FormatInt(i, 10)); av != nil {
		switch v := av.Value().(type) {
		case string:
			return v
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

// messageQueue holds server messages fetched via GET_ERRORS, draining
// newest-to-oldest exactly like the reference client's _get_message: the
// drain is destructive, and a single re-entrancy latch (held by the
// owning Session) keeps a drain triggered from inside a drain from
// recursing.
type messageQueue struct {
	messages  []serverMessage
	templates map[string]string
}

func newMessageQueue(templates map[string]string) *messageQueue {
	return &messageQueue{templates: templates}
}

func (sf *messageQueue) push(m serverMessage) { sf.messages = append(sf.messages, m) }

// drain pops every message at severity >= minSeverity, newest first, and
// formats them into one newline-joined string. Messages below the
// threshold are left in the queue for a later, lower-severity drain.
func (sf *messageQueue) drain(minSeverity int64) string {
	if len(sf.messages) == 0 {
		return ""
	}
	var kept []serverMessage
	var formatted []string
	for i := len(sf.messages) - 1; i >= 0; i-- {
		m := sf.messages[i]
		if m.severity() < minSeverity {
			kept = append([]serverMessage{m}, kept...)
			continue
		}
		formatted = append(formatted, sf.format(m))
	}
	sf.messages = kept
	return strings.Join(formatted, "\n")
}

func (sf *messageQueue) format(m serverMessage) string {
	args := make([]interface{}, 0, m.count())
	for i := int64(1); i <= m.count(); i++ {
		args = append(args, m.arg(i))
	}
	if tmpl, ok := sf.templates[m.name()]; ok && tmpl != "" {
		if formatted, err := formatTemplate(tmpl, args); err == nil {
			return formatted
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	if len(parts) == 0 {
		return m.name()
	}
	return m.name() + ": " + strings.Join(parts, ", ")
}

// formatTemplate substitutes "{0}".."{n}" placeholders in tmpl with args,
// the Go analogue of Python's str.format(*args).
func formatTemplate(tmpl string, args []interface{}) (string, error) {
	out := tmpl
	for i, a := range args {
		placeholder := "{" + strconv.Itoa(i) + "}"
		out = strings.ReplaceAll(out, placeholder, fmt.Sprint(a))
	}
	return out, nil
}
