package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the whole schema catalog loaded at boot: the
// type table, the three fixed scopes, and every declared service,
// addressable by id.
type Catalog struct {
	Types    map[string]TypeDef
	Builtin  ScopeDefinition
	Admin    ScopeDefinition
	Root     ScopeDefinition
	Services map[string]*ServiceDefinition
}

// ServiceIDsInOrder returns every service id, sorted alphabetically.
func (c *Catalog) ServiceIDsInOrder() []string {
	ids := make([]string, 0, len(c.Services))
	for id := range c.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadDir reads the schema catalog from dir, following the convention
// of reading a directory of well-known declarative config files: dir
// must contain types.yaml, builtin.yaml, admin.yaml and root.yaml, plus
// an optional services/ subdirectory of one YAML document per service.
//
// Any malformed syntax definition is a fatal boot error, never a
// per-request failure, so every decode error is returned immediately and
// wrapped with the offending file's path.
func LoadDir(dir string) (*Catalog, error) {
	cat := &Catalog{
		Types:    map[string]TypeDef{},
		Services: map[string]*ServiceDefinition{},
	}

	if err := decodeFile(filepath.Join(dir, "types.yaml"), &cat.Types); err != nil {
		return nil, err
	}
	if err := decodeFile(filepath.Join(dir, "builtin.yaml"), &cat.Builtin); err != nil {
		return nil, err
	}
	if err := decodeFile(filepath.Join(dir, "admin.yaml"), &cat.Admin); err != nil {
		return nil, err
	}
	if err := decodeFile(filepath.Join(dir, "root.yaml"), &cat.Root); err != nil {
		return nil, err
	}

	servicesDir := filepath.Join(dir, "services")
	entries, err := os.ReadDir(servicesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return cat, validate(cat)
		}
		return nil, fmt.Errorf("schema: read %s: %w", servicesDir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(servicesDir, e.Name())
		var svc ServiceDefinition
		if err := decodeFile(path, &svc); err != nil {
			return nil, err
		}
		if svc.ID == "" {
			return nil, fmt.Errorf("schema: %s: service definition missing id", path)
		}
		id := strings.ToLower(svc.ID)
		if _, dup := cat.Services[id]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate service id %q", path, id)
		}
		cat.Services[id] = &svc
	}

	return cat, validate(cat)
}

func decodeFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("schema: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("schema: decode %s: %w", path, err)
	}
	return nil
}

// validate enforces the structural invariants that must be checked once,
// at load time, rather than re-checked on every dispatch:
// every command declares at least one syntax, and every syntax names at
// least one allowed role. Parameter type names are not checked here; an
// unknown type surfaces later as a parse error from package argtype.
func validate(cat *Catalog) error {
	check := func(scopeName string, cmds map[string]CommandDefinition) error {
		for name, def := range cmds {
			if len(def.Syntaxes) == 0 {
				return fmt.Errorf("schema: %s.%s: no syntaxes declared", scopeName, name)
			}
			for i, syn := range def.Syntaxes {
				if len(syn.AllowedRoles) == 0 {
					return fmt.Errorf("schema: %s.%s: syntax %d has no allowedRoles", scopeName, name, i)
				}
			}
		}
		return nil
	}

	if err := check("builtin", cat.Builtin.Commands); err != nil {
		return err
	}
	if err := check("admin", cat.Admin.Commands); err != nil {
		return err
	}
	if err := check("root", cat.Root.Commands); err != nil {
		return err
	}
	for id, svc := range cat.Services {
		if err := check(id, svc.Commands); err != nil {
			return err
		}
	}
	return nil
}
