package config

import (
	"log"
	"sort"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// Missing returns the sorted names whose values are empty.
func Missing(values map[string]string) []string {
	var out []string
	for name, v := range values {
		if v == "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
