package deps

import (
	"os"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Manifest is the package section and registry dependencies of a local
// Cargo.toml.
type Manifest struct {
	Name         string
	Version      string
	Dependencies []registry.Dependency // Registry dependencies in declaration order
	Ignored      []string              // Path, git and workspace dependencies
}

var sectionKinds = map[string]registry.Kind{
	"dependencies":       registry.KindNormal,
	"build-dependencies": registry.KindBuild,
	"dev-dependencies":   registry.KindDev,
}

// ParseManifest reads a Cargo.toml file.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read manifest")
	}
	m, err := ParseManifestData(data)
	if err != nil {
		return nil, errs.Wrap(errs.GetCode(err), err, "%s", path)
	}
	return m, nil
}

// ParseManifestData parses Cargo.toml content. Dependencies are returned in
// the order they are declared, including target-specific tables. Only
// dependencies that carry a registry version requirement are kept.
func ParseManifestData(data []byte) (*Manifest, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid Cargo.toml")
	}

	pkg, _ := raw["package"].(map[string]any)
	name, _ := pkg["name"].(string)
	if name == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "manifest has no [package] name (virtual workspace manifests are not supported)")
	}
	version, _ := pkg["version"].(string)
	if version == "" {
		version = "0.0.0"
	}

	m := &Manifest{Name: name, Version: version}
	for _, key := range md.Keys() {
		var table map[string]any
		var section, dep string
		switch {
		case len(key) == 2:
			section, dep = key[0], key[1]
			table, _ = raw[section].(map[string]any)
		case len(key) == 4 && key[0] == "target":
			section, dep = key[2], key[3]
			targets, _ := raw["target"].(map[string]any)
			cfg, _ := targets[key[1]].(map[string]any)
			table, _ = cfg[section].(map[string]any)
		default:
			continue
		}
		kind, ok := sectionKinds[section]
		if !ok || table == nil {
			continue
		}
		if d, ok := manifestDep(dep, table[dep], kind); ok {
			m.Dependencies = append(m.Dependencies, d)
		} else {
			m.Ignored = append(m.Ignored, dep)
		}
	}
	return m, nil
}

// manifestDep converts one dependency entry, which is either a bare
// requirement string or a table.
func manifestDep(name string, v any, kind registry.Kind) (registry.Dependency, bool) {
	switch t := v.(type) {
	case string:
		return registry.Dependency{Name: name, Requirement: t, Kind: kind}, true
	case map[string]any:
		if ws, _ := t["workspace"].(bool); ws {
			return registry.Dependency{}, false
		}
		req, _ := t["version"].(string)
		if req == "" {
			return registry.Dependency{}, false
		}
		if pkg, _ := t["package"].(string); pkg != "" {
			name = pkg
		}
		optional, _ := t["optional"].(bool)
		return registry.Dependency{Name: name, Requirement: req, Kind: kind, Optional: optional}, true
	default:
		return registry.Dependency{}, false
	}
}
