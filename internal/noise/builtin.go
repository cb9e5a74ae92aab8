package noise

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed profiles/*.yaml
var builtinFS embed.FS

// Builtin returns a bundled calibration profile by name.
func Builtin(name string) (*Profile, error) {
	data, err := builtinFS.ReadFile("profiles/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown builtin profile %q (have %s)", name, strings.Join(Builtins(), ", "))
	}
	return ParseProfile(data)
}

// Builtins lists the bundled profile names.
func Builtins() []string {
	entries, _ := builtinFS.ReadDir("profiles")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// FakeQuito returns the bundled five-qubit profile.
func FakeQuito() *Profile {
	p, err := Builtin("fake_quito")
	if err != nil {
		panic(err)
	}
	return p
}
