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

// Package fix44 is the FIX.4.4 protocol profile: an embedded data
// dictionary covering the session layer and the order-entry/market-data
// message set this engine speaks, exposed both as a schema.FIXSchema (for
// validation) and as a codec.GroupProfile (for repeating-group decoding).
package fix44

import (
	_ "embed"
	"fmt"

	"github.com/coinbase-samples/fixengine-go/codec"
	"github.com/coinbase-samples/fixengine-go/schema"
	"github.com/coinbase-samples/fixengine-go/tag"
)

//go:embed dictionary.xml
var dictionaryXML []byte

// Profile wraps a loaded FIXSchema and additionally flattens every
// message's repeating-group declarations (including nested groups) so
// codec.GroupProfile.GroupSpec can answer for a group tag at any nesting
// depth, not just top-level ones.
type Profile struct {
	Schema *schema.FIXSchema
	groups map[string]map[tag.Tag]schema.Group
}

// LoadProfile parses a QuickFIX-dialect dictionary (see schema.LoadXML)
// into a Profile.
func LoadProfile(dictionaryData []byte) (*Profile, error) {
	s, err := schema.LoadXML(dictionaryData)
	if err != nil {
		return nil, fmt.Errorf("fix44: %w", err)
	}

	groups := make(map[string]map[tag.Tag]schema.Group, len(s.Messages))
	for msgType, def := range s.Messages {
		flat := make(map[tag.Tag]schema.Group)
		flatten(def.Fields.Groups, flat)
		groups[msgType] = flat
	}

	return &Profile{Schema: s, groups: groups}, nil
}

// NewProfile loads the engine's embedded FIX.4.4 dictionary.
func NewProfile() (*Profile, error) {
	return LoadProfile(dictionaryXML)
}

func flatten(groups map[tag.Tag]schema.Group, into map[tag.Tag]schema.Group) {
	for t, g := range groups {
		into[t] = g
		flatten(g.Nested, into)
	}
}

// GroupSpec implements codec.GroupProfile.
func (p *Profile) GroupSpec(msgType string, groupTag tag.Tag) (codec.GroupSpec, bool) {
	flat, ok := p.groups[msgType]
	if !ok {
		return codec.GroupSpec{}, false
	}
	g, ok := flat[groupTag]
	if !ok {
		return codec.GroupSpec{}, false
	}
	return codec.GroupSpec{Delimiter: g.Delimiter, Members: g.Members}, true
}

// IsAdmin reports whether msgType is a session-layer message, per
// tag.IsAdmin. Kept here too so callers that only import fix44 (not tag
// directly) have the classification available alongside the dictionary.
func IsAdmin(msgType string) bool {
	return tag.IsAdmin(msgType)
}
