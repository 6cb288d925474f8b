package route

import (
	"fmt"
	"strings"
)

// Method is one of the seven HTTP method tokens a route file may export.
type Method uint8

const (
	GET Method = iota
	POST
	PUT
	DELETE
	PATCH
	HEAD
	OPTIONS
)

// Methods lists every Method in canonical order. Registration of the
// methods of one route always follows this order.
var Methods = []Method{GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS}

var methodNames = [...]string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// String returns the method token, e.g. "GET".
func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// ParseMethod returns the Method for an upper-case token.
func ParseMethod(s string) (Method, bool) {
	for i, name := range methodNames {
		if name == s {
			return Method(i), true
		}
	}
	return 0, false
}

// MethodSet is a set of Methods.
type MethodSet uint8

// NewMethodSet returns a set holding ms.
func NewMethodSet(ms ...Method) MethodSet {
	var s MethodSet
	for _, m := range ms {
		s = s.Add(m)
	}
	return s
}

// Has reports whether m is in the set.
func (s MethodSet) Has(m Method) bool { return s&(1<<m) != 0 }

// Add returns the set with m added.
func (s MethodSet) Add(m Method) MethodSet { return s | 1<<m }

// Len returns the number of methods in the set.
func (s MethodSet) Len() int {
	n := 0
	for _, m := range Methods {
		if s.Has(m) {
			n++
		}
	}
	return n
}

// Slice returns the members in canonical order.
func (s MethodSet) Slice() []Method {
	out := make([]Method, 0, len(Methods))
	for _, m := range Methods {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// Strings returns the member tokens in canonical order.
func (s MethodSet) Strings() []string {
	ms := s.Slice()
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.String()
	}
	return out
}

func (s MethodSet) String() string {
	return strings.Join(s.Strings(), ",")
}
