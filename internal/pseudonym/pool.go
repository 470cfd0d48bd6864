package pseudonym

import (
	"errors"
	"strings"
)

// defaultNames is the alias list used when no pool is configured.
var defaultNames = []string{
	"Albatros", "Alpaga", "Antilope", "Belette", "Bison", "Blaireau",
	"Caribou", "Castor", "Chamois", "Colibri", "Coyote", "Dauphin",
	"Faucon", "Flamant", "Furet", "Gazelle", "Gecko", "Girafe",
	"Guépard", "Hérisson", "Hermine", "Héron", "Hibou", "Ibis",
	"Jaguar", "Koala", "Lama", "Lemming", "Loutre", "Lynx",
	"Marmotte", "Martre", "Mouflon", "Narval", "Ocelot", "Orque",
	"Panda", "Pélican", "Pingouin", "Puma", "Raton", "Renard",
	"Salamandre", "Suricate", "Tapir", "Toucan", "Vison", "Zèbre",
}

// Pool is an immutable list of aliases.
type Pool struct {
	names []string
}

// DefaultPool returns the built-in alias pool.
func DefaultPool() Pool {
	p, _ := NewPool(defaultNames)
	return p
}

// NewPool copies names into a pool. Blank entries and case-insensitive
// duplicates are dropped; at least one name must remain.
func NewPool(names []string) (Pool, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		return Pool{}, errors.New("pseudonym pool is empty")
	}
	return Pool{names: out}, nil
}

// Names returns a copy of the aliases.
func (p Pool) Names() []string {
	return append([]string(nil), p.names...)
}

func (p Pool) Len() int {
	return len(p.names)
}

// Match returns the first alias equal to word ignoring case.
func (p Pool) Match(word string) (string, bool) {
	for _, n := range p.names {
		if strings.EqualFold(n, word) {
			return n, true
		}
	}
	return "", false
}
