package domain

import "strings"

// ResultSet holds the working proxies of a run in the order their outcomes
// were observed.
type ResultSet []ProxyAddress

func (set ResultSet) Len() int {
	return len(set)
}

func (set ResultSet) Strings() []string {
	out := make([]string, len(set))
	for i, address := range set {
		out[i] = address.String()
	}
	return out
}

// Text renders the set newline-joined, without a trailing newline.
func (set ResultSet) Text() string {
	return strings.Join(set.Strings(), "\n")
}

func (set ResultSet) Contains(address ProxyAddress) bool {
	for _, candidate := range set {
		if candidate == address {
			return true
		}
	}
	return false
}
