package ids

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultLockfileName is the default lockfile name.
const DefaultLockfileName = ".mvpe.ids.lock"

// Lock is the persistent IdsLock.
type Lock struct {
	Version int

	Services map[string]int
	Methods  map[string]int // key: "Service.Method"
	Messages map[string]int

	TombstoneServices map[int]bool
	TombstoneMessages map[int]bool
	TombstoneMethods  map[string]map[int]bool // key: service name

	AliasServices map[string]string
	AliasMessages map[string]string
}

// NewLock returns an empty, version-1 Lock, equivalent to an absent file.
func NewLock() *Lock {
	return &Lock{
		Version:           1,
		Services:          map[string]int{},
		Methods:           map[string]int{},
		Messages:          map[string]int{},
		TombstoneServices: map[int]bool{},
		TombstoneMessages: map[int]bool{},
		TombstoneMethods:  map[string]map[int]bool{},
		AliasServices:     map[string]string{},
		AliasMessages:     map[string]string{},
	}
}

// escape applies the lockfile's escape rules left-to-right: '%' -> "%25", then '.' -> "%2E".
func escape(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, ".", "%2E")
	return s
}

// unescape reverses escape, applied right-to-left: '%2E' -> '.', then '%25' -> '%'.
func unescape(s string) string {
	s = strings.ReplaceAll(s, "%2E", ".")
	s = strings.ReplaceAll(s, "%25", "%")
	return s
}

// LoadLock reads a lockfile from path. An absent file is equivalent to an empty lock
// with version 1.
func LoadLock(path string) (*Lock, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewLock(), nil
		}
		return nil, errors.Wrapf(err, "ids: opening lockfile %s", path)
	}
	defer f.Close()

	l := NewLock()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Errorf("ids: malformed lockfile line %q", line)
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)

		if err := l.applyLine(key, val); err != nil {
			return nil, errors.Wrapf(err, "ids: parsing lockfile %s", path)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "ids: reading lockfile %s", path)
	}
	return l, nil
}

func (l *Lock) applyLine(key, val string) error {
	switch {
	case key == "version":
		v, err := strconv.Atoi(val)
		if err != nil {
			return errors.Errorf("version must be an integer, got %q", val)
		}
		l.Version = v
	case strings.HasPrefix(key, "services."):
		name := unescape(strings.TrimPrefix(key, "services."))
		id, err := strconv.Atoi(val)
		if err != nil {
			return errors.Errorf("services.%s must be an integer, got %q", name, val)
		}
		l.Services[name] = id
	case strings.HasPrefix(key, "methods."):
		name := unescape(strings.TrimPrefix(key, "methods."))
		id, err := strconv.Atoi(val)
		if err != nil {
			return errors.Errorf("methods.%s must be an integer, got %q", name, val)
		}
		l.Methods[name] = id
	case strings.HasPrefix(key, "messages."):
		name := unescape(strings.TrimPrefix(key, "messages."))
		id, err := strconv.Atoi(val)
		if err != nil {
			return errors.Errorf("messages.%s must be an integer, got %q", name, val)
		}
		l.Messages[name] = id
	case key == "tombstones.services":
		for _, id := range splitCSVInts(val) {
			l.TombstoneServices[id] = true
		}
	case key == "tombstones.messages":
		for _, id := range splitCSVInts(val) {
			l.TombstoneMessages[id] = true
		}
	case strings.HasPrefix(key, "tombstones.methods."):
		svc := unescape(strings.TrimPrefix(key, "tombstones.methods."))
		set := l.TombstoneMethods[svc]
		if set == nil {
			set = map[int]bool{}
			l.TombstoneMethods[svc] = set
		}
		for _, id := range splitCSVInts(val) {
			set[id] = true
		}
	case strings.HasPrefix(key, "aliases.services."):
		old := unescape(strings.TrimPrefix(key, "aliases.services."))
		l.AliasServices[old] = val
	case strings.HasPrefix(key, "aliases.messages."):
		old := unescape(strings.TrimPrefix(key, "aliases.messages."))
		l.AliasMessages[old] = val
	default:
		// Unknown keys are ignored, matching the IDL's own forward-compat rule.
	}
	return nil
}

func splitCSVInts(s string) []int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Save persists the Lock to path in its on-disk form. Tombstone CSVs are written
// in ascending numeric order for stable diffs.
func (l *Lock) Save(path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "version = %d\n", l.Version)

	for _, name := range sortedKeys(l.Services) {
		fmt.Fprintf(&b, "services.%s = %d\n", escape(name), l.Services[name])
	}
	for _, name := range sortedKeys(l.Methods) {
		fmt.Fprintf(&b, "methods.%s = %d\n", escape(name), l.Methods[name])
	}
	for _, name := range sortedKeys(l.Messages) {
		fmt.Fprintf(&b, "messages.%s = %d\n", escape(name), l.Messages[name])
	}

	if len(l.TombstoneServices) > 0 {
		fmt.Fprintf(&b, "tombstones.services = %s\n", csvOfInts(l.TombstoneServices))
	}
	if len(l.TombstoneMessages) > 0 {
		fmt.Fprintf(&b, "tombstones.messages = %s\n", csvOfInts(l.TombstoneMessages))
	}
	for _, svc := range sortedKeysOfIntSet(l.TombstoneMethods) {
		fmt.Fprintf(&b, "tombstones.methods.%s = %s\n", escape(svc), csvOfInts(l.TombstoneMethods[svc]))
	}

	for _, old := range sortedKeys(l.AliasServices) {
		fmt.Fprintf(&b, "aliases.services.%s = %s\n", escape(old), l.AliasServices[old])
	}
	for _, old := range sortedKeys(l.AliasMessages) {
		fmt.Fprintf(&b, "aliases.messages.%s = %s\n", escape(old), l.AliasMessages[old])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "ids: writing lockfile %s", path)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysOfIntSet(m map[string]map[int]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func csvOfInts(set map[int]bool) string {
	ints := make([]int, 0, len(set))
	for id := range set {
		ints = append(ints, id)
	}
	sort.Ints(ints)
	parts := make([]string, len(ints))
	for i, id := range ints {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
