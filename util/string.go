package util

import (
	"fmt"
	"strings"
)

// JoinString is strings.Join for any slice of fmt.Stringer
func JoinString[A fmt.Stringer](elems []A, sep string) string {
	strs := make([]string, len(elems))
	for i, elem := range elems {
		strs[i] = elem.String()
	}
	return strings.Join(strs, sep)
}
