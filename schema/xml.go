/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package schema

import (
	"encoding/xml"
	"fmt"

	"github.com/coinbase-samples/fixengine-go/tag"
)

// xmlRoot mirrors the QuickFIX data dictionary dialect: a top-level
// <fields> block defines every tag by number, <header> declares the
// singleton set prepended to every message, <components> declares named
// field groups meant to be flattened into whichever sets reference them,
// and <messages> references fields, groups, and components by name. This
// is the dialect described in spec §6.
type xmlRoot struct {
	XMLName    xml.Name       `xml:"fix"`
	Header     xmlHeader      `xml:"header"`
	Components []xmlComponent `xml:"components>component"`
	Messages   []xmlMessage   `xml:"messages>message"`
	Fields     []xmlField     `xml:"fields>field"`
}

type xmlField struct {
	Number int        `xml:"number,attr"`
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Values []xmlValue `xml:"value"`
}

type xmlValue struct {
	Enum        string `xml:"enum,attr"`
	Description string `xml:"description,attr"`
}

// xmlHeader is the <header> element: the same member shape as a message
// (fields, groups, components) but with no msgtype/msgcat of its own,
// since it is prepended to every message rather than selected by one.
type xmlHeader struct {
	Fields     []xmlMember       `xml:"field"`
	Groups     []xmlGroup        `xml:"group"`
	Components []xmlComponentRef `xml:"component"`
}

// xmlComponent is a <components><component> definition: a reusable,
// named bundle of fields/groups/nested-component-references that other
// sets (header, messages, groups, or other components) pull in by name.
type xmlComponent struct {
	Name       string            `xml:"name,attr"`
	Fields     []xmlMember       `xml:"field"`
	Groups     []xmlGroup        `xml:"group"`
	Components []xmlComponentRef `xml:"component"`
}

// xmlComponentRef is a <component name="..." required="Y|N"/> reference
// inside a header, message, group, or another component.
type xmlComponentRef struct {
	Name     string `xml:"name,attr"`
	Required string `xml:"required,attr"`
}

type xmlMessage struct {
	Name       string            `xml:"name,attr"`
	MsgType    string            `xml:"msgtype,attr"`
	MsgCat     string            `xml:"msgcat,attr"`
	Fields     []xmlMember       `xml:"field"`
	Groups     []xmlGroup        `xml:"group"`
	Components []xmlComponentRef `xml:"component"`
}

type xmlMember struct {
	Name     string `xml:"name,attr"`
	Required string `xml:"required,attr"`
}

type xmlGroup struct {
	Name       string            `xml:"name,attr"`
	Required   string            `xml:"required,attr"`
	Fields     []xmlMember       `xml:"field"`
	Groups     []xmlGroup        `xml:"group"`
	Components []xmlComponentRef `xml:"component"`
}

// LoadXML parses a QuickFIX-dialect data dictionary document into a
// FIXSchema. See fix44.Dictionary for the embedded FIX.4.4 dictionary this
// engine ships.
//
// Build order follows spec §3: fields, then header, then components
// (resolved against a pending set so a component may reference another
// declared later in the document), then messages.
func LoadXML(data []byte) (*FIXSchema, error) {
	var root xmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("schema: parse dictionary: %w", err)
	}

	byName := make(map[string]tag.Tag, len(root.Fields))
	fields := make(map[tag.Tag]Field, len(root.Fields))
	for _, f := range root.Fields {
		t := tag.Tag(f.Number)
		byName[f.Name] = t
		enums := make(map[string]string, len(f.Values))
		for _, v := range f.Values {
			enums[v.Enum] = v.Description
		}
		fields[t] = Field{Tag: t, Name: f.Name, Type: f.Type, Enums: enums}
	}

	componentDefs := make(map[string]xmlComponent, len(root.Components))
	for _, c := range root.Components {
		componentDefs[c.Name] = c
	}
	resolver := &componentResolver{
		defs:    componentDefs,
		byName:  byName,
		cache:   make(map[string]Set),
		visitng: make(map[string]bool),
	}

	header, err := buildSet(root.Header.Fields, root.Header.Groups, root.Header.Components, byName, resolver)
	if err != nil {
		return nil, fmt.Errorf("schema: header: %w", err)
	}

	messages := make(map[string]Message, len(root.Messages))
	for _, m := range root.Messages {
		set, err := buildSet(m.Fields, m.Groups, m.Components, byName, resolver)
		if err != nil {
			return nil, fmt.Errorf("schema: message %s: %w", m.Name, err)
		}
		messages[m.MsgType] = Message{MsgType: m.MsgType, Name: m.Name, Fields: set}
	}

	return &FIXSchema{Fields: fields, Header: header, Messages: messages}, nil
}

// componentResolver resolves a named <component> into a flattened Set,
// memoizing completed resolutions and detecting cyclic component
// references (a component that, directly or transitively, references
// itself) via the in-progress visitng set.
type componentResolver struct {
	defs    map[string]xmlComponent
	byName  map[string]tag.Tag
	cache   map[string]Set
	visitng map[string]bool
}

func (r *componentResolver) resolve(name string) (Set, error) {
	if set, ok := r.cache[name]; ok {
		return set, nil
	}
	if r.visitng[name] {
		return Set{}, fmt.Errorf("component %q: cyclic reference", name)
	}
	def, ok := r.defs[name]
	if !ok {
		return Set{}, fmt.Errorf("component %q not declared in <components>", name)
	}

	r.visitng[name] = true
	set, err := buildSet(def.Fields, def.Groups, def.Components, r.byName, r)
	delete(r.visitng, name)
	if err != nil {
		return Set{}, fmt.Errorf("component %q: %w", name, err)
	}

	r.cache[name] = set
	return set, nil
}

// buildSet assembles a Set from a set of plain field/group members plus a
// set of component references, flattening each referenced component's own
// fields, groups, and (recursively) nested components into the result.
// See Set.declares and spec §3's "components may merge into other sets by
// copying members".
func buildSet(members []xmlMember, groups []xmlGroup, componentRefs []xmlComponentRef, byName map[string]tag.Tag, resolver *componentResolver) (Set, error) {
	set := Set{
		Required: make(map[tag.Tag]bool),
		Optional: make(map[tag.Tag]bool),
		Groups:   make(map[tag.Tag]Group),
	}

	for _, m := range members {
		t, ok := byName[m.Name]
		if !ok {
			return Set{}, fmt.Errorf("field %q not declared in <fields>", m.Name)
		}
		if m.Required == "Y" {
			set.Required[t] = true
		} else {
			set.Optional[t] = true
		}
	}

	for _, g := range groups {
		groupTag, ok := byName[g.Name]
		if !ok {
			return Set{}, fmt.Errorf("group %q not declared in <fields>", g.Name)
		}
		grp, err := buildGroup(groupTag, g, byName, resolver)
		if err != nil {
			return Set{}, err
		}
		set.Groups[groupTag] = grp
		if g.Required == "Y" {
			set.Required[groupTag] = true
		} else {
			set.Optional[groupTag] = true
		}
	}

	for _, ref := range componentRefs {
		if resolver == nil {
			return Set{}, fmt.Errorf("component %q referenced but no components are declared", ref.Name)
		}
		componentSet, err := resolver.resolve(ref.Name)
		if err != nil {
			return Set{}, err
		}
		mergeComponentSet(&set, componentSet, ref.Required == "Y")
	}

	return set, nil
}

// mergeComponentSet copies a resolved component's members into dst. A
// component referenced with required="N" contributes every one of its
// members as optional regardless of how the component itself marks them
// internally: an absent component cannot leave one of its own fields
// mandatory.
func mergeComponentSet(dst *Set, src Set, refRequired bool) {
	for t := range src.Required {
		if refRequired {
			dst.Required[t] = true
		} else {
			dst.Optional[t] = true
		}
	}
	for t := range src.Optional {
		dst.Optional[t] = true
	}
	for t, g := range src.Groups {
		dst.Groups[t] = g
	}
}

// buildGroup resolves a <group> element into a Group definition. The
// group's delimiter is its first member field, per the common FIX
// convention of opening each repeating entry with that field; see spec
// §4.1 and codec.GroupSpec for the "infer from wire" fallback this feeds codec.
func buildGroup(groupTag tag.Tag, g xmlGroup, byName map[string]tag.Tag, resolver *componentResolver) (Group, error) {
	grp := Group{
		Tag:      groupTag,
		Required: make(map[tag.Tag]bool),
		Members:  make(map[tag.Tag]bool),
		Nested:   make(map[tag.Tag]Group),
	}

	for i, m := range g.Fields {
		t, ok := byName[m.Name]
		if !ok {
			return Group{}, fmt.Errorf("group %d: field %q not declared in <fields>", groupTag, m.Name)
		}
		if i == 0 {
			grp.Delimiter = t
		}
		grp.Members[t] = true
		if m.Required == "Y" {
			grp.Required[t] = true
		}
	}

	for _, nestedXML := range g.Groups {
		nestedTag, ok := byName[nestedXML.Name]
		if !ok {
			return Group{}, fmt.Errorf("group %d: nested group %q not declared in <fields>", groupTag, nestedXML.Name)
		}
		nested, err := buildGroup(nestedTag, nestedXML, byName, resolver)
		if err != nil {
			return Group{}, err
		}
		grp.Members[nestedTag] = true
		grp.Nested[nestedTag] = nested
		if nestedXML.Required == "Y" {
			grp.Required[nestedTag] = true
		}
		if grp.Delimiter == 0 {
			grp.Delimiter = nestedTag
		}
	}

	for _, ref := range g.Components {
		if resolver == nil {
			return Group{}, fmt.Errorf("group %d: component %q referenced but no components are declared", groupTag, ref.Name)
		}
		componentSet, err := resolver.resolve(ref.Name)
		if err != nil {
			return Group{}, err
		}
		for t := range componentSet.Required {
			grp.Members[t] = true
			if ref.Required == "Y" {
				grp.Required[t] = true
			}
		}
		for t := range componentSet.Optional {
			grp.Members[t] = true
		}
		for t, nested := range componentSet.Groups {
			grp.Members[t] = true
			grp.Nested[t] = nested
			if grp.Delimiter == 0 {
				grp.Delimiter = t
			}
		}
	}

	return grp, nil
}
