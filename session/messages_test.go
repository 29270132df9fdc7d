// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package session

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwise-go/dctm/typedobject"
)

func newServerMessage(name string, severity int64, args ...string) serverMessage {
	typ := typedobject.NewType("GeneratedType", 0, "", "")
	obj := typedobject.NewTypedObject(typ, 0, false)
	obj.SetString("NAME", name)
	obj.SetInt("SEVERITY", severity)
	obj.SetInt("COUNT", int64(len(args)))
	for i, a := range args {
		obj.SetString(strconv.Itoa(i+1), a)
	}
	return serverMessage{obj: obj}
}

func TestMessageQueueDrainOnlyErrorSeverity(t *testing.T) {
	q := newMessageQueue(nil)
	q.push(newServerMessage("DM_INFO", SeverityInfo))
	q.push(newServerMessage("DM_ERROR", SeverityError, "foo"))

	errText := q.drain(SeverityError)
	require.Contains(t, errText, "DM_ERROR")
	require.Contains(t, errText, "foo")
	require.NotContains(t, errText, "DM_INFO")

	infoText := q.drain(SeverityInfo)
	require.Equal(t, "DM_INFO", infoText)
}

func TestMessageQueueDrainNewestFirst(t *testing.T) {
	q := newMessageQueue(nil)
	q.push(newServerMessage("FIRST", SeverityError))
	q.push(newServerMessage("SECOND", SeverityError))

	out := q.drain(SeverityError)
	require.Equal(t, "SECOND\nFIRST", out)
}

func TestMessageQueueFormatsWithTemplate(t *testing.T) {
	q := newMessageQueue(map[string]string{"DM_WELCOME": "hello {0}"})
	q.push(newServerMessage("DM_WELCOME", SeverityError, "world"))

	out := q.drain(SeverityError)
	require.Equal(t, "hello world", out)
}

func TestMessageQueueDrainEmpty(t *testing.T) {
	q := newMessageQueue(nil)
	require.Equal(t, "", q.drain(SeverityError))
}
