package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

// parsePairs parses repeated key=value flags
func parsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		m[k] = v
	}
	return m, nil
}

// resourceFlags selects the resource a grant or check targets
type resourceFlags struct {
	typ    string
	id     string
	fields []string
}

func (f *resourceFlags) register(fs *pflag.FlagSet, withFields bool) {
	fs.StringVar(&f.typ, "type", "", "Resource type")
	fs.StringVar(&f.id, "id", "", "Resource id (requires --type)")
	if withFields {
		fs.StringArrayVar(&f.fields, "field", nil, "Resource attribute as key=value, e.g. user_id=42")
	}
}

// resource returns nil when no type is given, a class resource for a type
// alone and an instance otherwise.
func (f *resourceFlags) resource() (*bouncer.Resource, error) {
	fields, err := parsePairs(f.fields)
	if err != nil {
		return nil, err
	}
	switch {
	case f.typ == "" && (f.id != "" || fields != nil):
		return nil, fmt.Errorf("--id and --field require --type")
	case f.typ == "":
		return nil, nil
	case f.id == "":
		return bouncer.Class(f.typ), nil
	}
	return bouncer.Instance(f.typ, f.id, fields), nil
}

// parseRoleRef parses NAME or NAME@SCOPE
func parseRoleRef(s string) bouncer.RoleRef {
	name, scope, _ := strings.Cut(s, "@")
	return bouncer.RoleNamed(name).In(scope)
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
