// Package event interprets a decoded environment block as a cluster
// event: the variables the agent sets for its handlers, plus helpers
// for member-* payloads.
package event

import (
	"bufio"
	"strings"

	"evrelay/internal/envwire"
)

// Environment variable names set by the agent.
const (
	VarEvent      = "SERF_EVENT"
	VarSelfName   = "SERF_SELF_NAME"
	VarSelfRole   = "SERF_SELF_ROLE"
	VarUserEvent  = "SERF_USER_EVENT"
	VarUserLTime  = "SERF_USER_LTIME"
	VarQueryName  = "SERF_QUERY_NAME"
	VarQueryLTime = "SERF_QUERY_LTIME"
	TagPrefix     = "SERF_TAG_"
)

// Event types.
const (
	TypeMemberJoin   = "member-join"
	TypeMemberLeave  = "member-leave"
	TypeMemberFailed = "member-failed"
	TypeMemberUpdate = "member-update"
	TypeMemberReap   = "member-reap"
	TypeUser         = "user"
	TypeQuery        = "query"
)

// Event is one handler invocation as seen by the receiving side.
type Event struct {
	Type       string            `json:"type"`
	SelfName   string            `json:"self_name,omitempty"`
	SelfRole   string            `json:"self_role,omitempty"`
	SelfTags   map[string]string `json:"self_tags,omitempty"`
	UserEvent  string            `json:"user_event,omitempty"`
	QueryName  string            `json:"query_name,omitempty"`
	UserLTime  string            `json:"user_ltime,omitempty"`
	QueryLTime string            `json:"query_ltime,omitempty"`
	Payload    string            `json:"payload"`
	Env        []string          `json:"-"`
}

// New builds an Event from an environment block and its payload.  When
// a variable appears twice the first occurrence wins.
func New(env []string, payload []byte) *Event {
	ev := &Event{Env: env, Payload: string(payload)}
	seen := make(map[string]bool, len(env))
	for _, p := range envwire.Pairs(env) {
		if seen[p.Key] {
			continue
		}
		seen[p.Key] = true

		switch {
		case p.Key == VarEvent:
			ev.Type = p.Value
		case p.Key == VarSelfName:
			ev.SelfName = p.Value
		case p.Key == VarSelfRole:
			ev.SelfRole = p.Value
		case p.Key == VarUserEvent:
			ev.UserEvent = p.Value
		case p.Key == VarQueryName:
			ev.QueryName = p.Value
		case p.Key == VarUserLTime:
			ev.UserLTime = p.Value
		case p.Key == VarQueryLTime:
			ev.QueryLTime = p.Value
		case strings.HasPrefix(p.Key, TagPrefix):
			if ev.SelfTags == nil {
				ev.SelfTags = make(map[string]string)
			}
			ev.SelfTags[strings.TrimPrefix(p.Key, TagPrefix)] = p.Value
		}
	}
	return ev
}

// LTime returns the Lamport time of a user event or query, whichever
// the agent supplied.
func (e *Event) LTime() string {
	if e.QueryLTime != "" {
		return e.QueryLTime
	}
	return e.UserLTime
}

// IsQuery reports whether the event expects a response.
func (e *Event) IsQuery() bool { return e.Type == TypeQuery }

// IsMemberEvent reports whether the payload is a member list.
func (e *Event) IsMemberEvent() bool {
	switch e.Type {
	case TypeMemberJoin, TypeMemberLeave, TypeMemberFailed, TypeMemberUpdate, TypeMemberReap:
		return true
	}
	return false
}

// Member is one line of a member-* payload.
type Member struct {
	Name    string            `json:"name"`
	Address string            `json:"address"`
	Role    string            `json:"role,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// Members parses the payload of member-* events, one tab-separated
// "name address role tags" record per line.  It returns nil for any
// other event type.
func (e *Event) Members() []Member {
	if !e.IsMemberEvent() {
		return nil
	}
	var out []Member
	sc := bufio.NewScanner(strings.NewReader(e.Payload))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		f := strings.Split(line, "\t")
		for len(f) < 4 {
			f = append(f, "")
		}
		out = append(out, Member{
			Name:    f[0],
			Address: f[1],
			Role:    f[2],
			Tags:    ParseTags(f[3]),
		})
	}
	return out
}

// ParseTags parses a "k=v,k=v" tag list.  Tag values may themselves
// contain commas: a comma-separated piece with no '=' belongs to the
// previous value, so "e=f,g,h" is {"e": "f,g,h"}.
func ParseTags(s string) map[string]string {
	if s == "" {
		return nil
	}
	tags := make(map[string]string)
	var key string
	var val strings.Builder
	open := false

	flush := func() {
		if open {
			tags[key] = val.String()
		}
	}

	for _, piece := range strings.Split(s, ",") {
		if k, v, ok := strings.Cut(piece, "="); ok || !open {
			flush()
			key = k
			val.Reset()
			val.WriteString(v)
			open = true
			continue
		}
		val.WriteByte(',')
		val.WriteString(piece)
	}
	flush()
	return tags
}
