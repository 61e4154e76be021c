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

// Package schema validates decoded FIX messages against a loaded data
// dictionary: field membership, required-field presence, enumerated-value
// membership, and recursive repeating-group structure. The dictionary
// itself is loaded from the QuickFIX XML dialect by xml.go.
package schema

import (
	"errors"
	"fmt"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

var (
	ErrUnknownMessageType   = errors.New("schema: unknown MsgType")
	ErrUnknownTag           = errors.New("schema: tag not declared for this message")
	ErrMissingRequiredField = errors.New("schema: required field missing")
	ErrInvalidEnum          = errors.New("schema: value not a declared enum member")
	ErrGroupCountMismatch   = errors.New("schema: group entry count does not match declared count")
)

// Field is one dictionary field definition: its wire type and, if the
// field is enumerated, the set of legal values.
type Field struct {
	Tag   tag.Tag
	Name  string
	Type  string
	Enums map[string]string // value -> description; empty means unrestricted
}

// Group is a repeating group as declared inside a message definition: the
// delimiter is the group's first member field, and Members names every tag
// (including nested group tags) legal inside one entry.
type Group struct {
	Tag       tag.Tag
	Delimiter tag.Tag
	Required  map[tag.Tag]bool
	Members   map[tag.Tag]bool
	Nested    map[tag.Tag]Group
}

// Set is the field membership declared for one message definition:
// required tags, optional tags, and any repeating groups.
type Set struct {
	Required map[tag.Tag]bool
	Optional map[tag.Tag]bool
	Groups   map[tag.Tag]Group
}

func (s Set) declares(t tag.Tag) bool {
	if s.Required[t] || s.Optional[t] {
		return true
	}
	_, isGroup := s.Groups[t]
	return isGroup
}

// Message is one dictionary message definition.
type Message struct {
	MsgType string
	Name    string
	Fields  Set
}

// FIXSchema is a loaded data dictionary: every field definition keyed by
// tag number, the header set prepended to every message, and every
// message definition keyed by MsgType.
type FIXSchema struct {
	Fields   map[tag.Tag]Field
	Header   Set
	Messages map[string]Message
}

// Validate checks msg against the dictionary, per spec §4.2:
//  1. MsgType must be declared.
//  2. Every required header field must be present and pass value
//     validation (MsgType itself is exempt: it is carried out of band by
//     message.Message rather than stored in the body container).
//  3. Every present tag must be declared for that message (as a scalar
//     field, a repeating group, or a header member), every required tag
//     must be present, enumerated fields must hold a declared value.
//  4. Repeating groups are validated recursively: required members present
//     in every entry. The entry count is not compared with a declared count
//     here, since message.Message holds only the entries; codec.Decode
//     fails with ErrIncompleteGroup when fewer entries arrive than declared.
//  5. Any tag not defined by the message/header/known-groups composition
//     is rejected as unknown.
func (s *FIXSchema) Validate(msg *message.Message) error {
	def, ok := s.Messages[msg.MsgType()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.MsgType())
	}

	if err := s.validateHeader(msg); err != nil {
		return err
	}

	present := make(map[tag.Tag]bool)
	for _, t := range msg.Order() {
		present[t] = true

		if grp, isGroup := def.Fields.Groups[t]; isGroup {
			entries, err := msg.GetGroup(t)
			if err != nil {
				return err
			}
			if err := s.validateGroup(grp, entries); err != nil {
				return err
			}
			continue
		}

		if !def.Fields.declares(t) && !s.Header.declares(t) {
			return fmt.Errorf("%w: tag %d in message %s", ErrUnknownTag, t, def.MsgType)
		}

		v, err := msg.Get(t)
		if err != nil {
			return err
		}
		if field, ok := s.Fields[t]; ok && len(field.Enums) > 0 {
			if _, ok := field.Enums[v]; !ok {
				return fmt.Errorf("%w: tag %d value %q", ErrInvalidEnum, t, v)
			}
		}
	}

	for t := range def.Fields.Required {
		if !present[t] {
			return fmt.Errorf("%w: tag %d in message %s", ErrMissingRequiredField, t, def.MsgType)
		}
	}

	return nil
}

// validateHeader implements spec §4.2 step 2: every required header tag
// must be present on msg and, if enumerated, hold a declared value.
// MsgType (tag 35) is skipped: message.Message carries it out of band
// rather than in the body container, so it can never appear in msg.Order().
func (s *FIXSchema) validateHeader(msg *message.Message) error {
	for t := range s.Header.Required {
		if t == tag.MsgType {
			continue
		}
		v, err := msg.Get(t)
		if err != nil {
			return fmt.Errorf("%w: header tag %d", ErrMissingRequiredField, t)
		}
		if field, ok := s.Fields[t]; ok && len(field.Enums) > 0 {
			if _, ok := field.Enums[v]; !ok {
				return fmt.Errorf("%w: header tag %d value %q", ErrInvalidEnum, t, v)
			}
		}
	}
	return nil
}

func (s *FIXSchema) validateGroup(grp Group, entries []*message.Container) error {
	for _, entry := range entries {
		present := make(map[tag.Tag]bool)
		for _, t := range entry.Order() {
			present[t] = true

			if nested, isGroup := grp.Nested[t]; isGroup {
				nestedEntries, err := entry.GetGroup(t)
				if err != nil {
					return err
				}
				if err := s.validateGroup(nested, nestedEntries); err != nil {
					return err
				}
				continue
			}

			if !grp.Members[t] {
				return fmt.Errorf("%w: tag %d in group %d", ErrUnknownTag, t, grp.Tag)
			}

			v, err := entry.Get(t)
			if err != nil {
				return err
			}
			if field, ok := s.Fields[t]; ok && len(field.Enums) > 0 {
				if _, ok := field.Enums[v]; !ok {
					return fmt.Errorf("%w: tag %d value %q", ErrInvalidEnum, t, v)
				}
			}
		}

		for t := range grp.Required {
			if !present[t] {
				return fmt.Errorf("%w: tag %d in group %d entry", ErrMissingRequiredField, t, grp.Tag)
			}
		}
	}
	return nil
}
