// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"io"

	"gopkg.in/yaml.v3"
)

// Properties is the visitor a PropertyReporter node walks its own
// configuration with. A node calls one method per field it wants to
// expose; read-only visitors (used for dumps) ignore the pointer and
// only record the value, while an editing visitor would also write
// through it. This core only ever hands nodes a read-only visitor.
type Properties interface {
	Bool(name string, v *bool)
	Int(name string, v *int)
	Float32(name string, v *float32)
	String(name string, v *string)
	Enum(name string, v *int, options []string)
}

// dumpProperties is a read-only Properties visitor that records every
// field it's shown, in call order, for the YAML debug dump.
type dumpProperties struct {
	fields []propertyField
}

type propertyField struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

func (d *dumpProperties) Bool(name string, v *bool) {
	d.fields = append(d.fields, propertyField{name, *v})
}
func (d *dumpProperties) Int(name string, v *int) {
	d.fields = append(d.fields, propertyField{name, *v})
}
func (d *dumpProperties) Float32(name string, v *float32) {
	d.fields = append(d.fields, propertyField{name, *v})
}
func (d *dumpProperties) String(name string, v *string) {
	d.fields = append(d.fields, propertyField{name, *v})
}
func (d *dumpProperties) Enum(name string, v *int, options []string) {
	val := ""
	if *v >= 0 && *v < len(options) {
		val = options[*v]
	}
	d.fields = append(d.fields, propertyField{name, val})
}

// nodeDump is one node's entry in the YAML debug dump.
type nodeDump struct {
	Identifier string          `yaml:"identifier"`
	Type       string          `yaml:"type"`
	Disabled   bool            `yaml:"disabled,omitempty"`
	Errors     []string        `yaml:"errors,omitempty"`
	Properties []propertyField `yaml:"properties,omitempty"`
}

// DumpProperties writes a read-only YAML snapshot of every node's
// reported Properties to w, for offline inspection without a GUI
// inspector.
func (g *Graph) DumpProperties(w io.Writer) error {
	var dump []nodeDump
	for _, key := range g.nodes.Keys() {
		rec, _ := g.nodes.ValueByKeyTry(key)
		nd := nodeDump{
			Identifier: rec.identifier,
			Type:       g.typeNames[rec.id],
			Disabled:   rec.disabled,
		}
		for _, err := range rec.errs {
			nd.Errors = append(nd.Errors, err.Error())
		}
		if reporter, ok := rec.node.(PropertyReporter); ok {
			v := &dumpProperties{}
			if _, err := reporter.Properties(v); err != nil {
				rec.addError(wrapNodeError("%s: Properties: %v", rec.identifier, err))
			} else {
				nd.Properties = v.fields
			}
		}
		dump = append(dump, nd)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(dump)
}
