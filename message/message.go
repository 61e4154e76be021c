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

// Package message implements the in-memory FIX message model: an ordered
// tag/value container with repeating-group support, and the Message type
// built on top of it whose MsgType is fixed at construction.
package message

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/coinbase-samples/fixengine-go/tag"
)

// Sentinel error kinds. Wrapped with tag context via fmt.Errorf("%w: ...").
var (
	ErrDuplicateTag     = errors.New("message: duplicate tag")
	ErrUseGroupAccessor = errors.New("message: tag is a repeating group, use GetGroup")
	ErrRepeatingTag     = errors.New("message: tag decoded as repeating, indicates mishandled group")
	ErrTagNotFound      = errors.New("message: tag not found")
	ErrNotAGroup        = errors.New("message: tag is not a repeating group")
	ErrReservedTag      = errors.New("message: tag is reserved for framing, the encoder owns it")
)

// reservedTags are owned by the codec and may not be set manually on an
// outbound message. See spec §3 "Message container" invariants.
var reservedTags = map[tag.Tag]bool{
	tag.BeginString:  true,
	tag.BodyLength:   true,
	tag.CheckSum:     true,
	tag.MsgType:      true,
	tag.MsgSeqNum:    true,
	tag.SendingTime:  true,
	tag.SenderCompID: true,
	tag.TargetCompID: true,
}

// Container is an ordered sequence of (tag, value) entries plus a nested
// representation for repeating groups. A Container is not safe for
// concurrent use; each connection owns its containers from a single
// goroutine per spec §5.
type Container struct {
	order     []tag.Tag
	scalars   map[tag.Tag]string
	groups    map[tag.Tag][]*Container
	repeating map[tag.Tag]bool
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{
		scalars:   make(map[tag.Tag]string),
		groups:    make(map[tag.Tag][]*Container),
		repeating: make(map[tag.Tag]bool),
	}
}

// Set assigns value to tag t. It fails if t already holds a scalar or
// group value; use Replace to overwrite deliberately.
func (c *Container) Set(t tag.Tag, value string) error {
	if _, exists := c.groups[t]; exists {
		return fmt.Errorf("%w: tag %d", ErrDuplicateTag, t)
	}
	if _, exists := c.scalars[t]; exists {
		return fmt.Errorf("%w: tag %d", ErrDuplicateTag, t)
	}
	c.scalars[t] = value
	c.order = append(c.order, t)
	return nil
}

// Replace assigns value to tag t unconditionally, appending to the
// insertion order only the first time t is seen.
func (c *Container) Replace(t tag.Tag, value string) {
	if _, exists := c.scalars[t]; !exists {
		c.order = append(c.order, t)
	}
	c.scalars[t] = value
}

// Get returns the scalar value at tag t. It fails with ErrUseGroupAccessor
// if t is a repeating group tag, ErrRepeatingTag if a decoded duplicate
// was observed for t outside of group handling, or ErrTagNotFound if t is
// absent.
func (c *Container) Get(t tag.Tag) (string, error) {
	if _, isGroup := c.groups[t]; isGroup {
		return "", fmt.Errorf("%w: tag %d", ErrUseGroupAccessor, t)
	}
	if c.repeating[t] {
		return "", fmt.Errorf("%w: tag %d", ErrRepeatingTag, t)
	}
	v, ok := c.scalars[t]
	if !ok {
		return "", fmt.Errorf("%w: tag %d", ErrTagNotFound, t)
	}
	return v, nil
}

// GetOr returns the scalar at t, or def if absent or unreadable.
func (c *Container) GetOr(t tag.Tag, def string) string {
	v, err := c.Get(t)
	if err != nil {
		return def
	}
	return v
}

// Has reports whether t holds any value, scalar or group.
func (c *Container) Has(t tag.Tag) bool {
	if _, ok := c.scalars[t]; ok {
		return true
	}
	_, ok := c.groups[t]
	return ok
}

// SetGroup installs entries as the repeating group at t. The wire count
// tag equals len(entries) and is never set independently.
func (c *Container) SetGroup(t tag.Tag, entries []*Container) error {
	if _, exists := c.scalars[t]; exists {
		return fmt.Errorf("%w: tag %d", ErrDuplicateTag, t)
	}
	if _, exists := c.groups[t]; exists {
		return fmt.Errorf("%w: tag %d", ErrDuplicateTag, t)
	}
	c.groups[t] = entries
	c.order = append(c.order, t)
	return nil
}

// AddGroupEntry appends a new, empty entry to the group at t (creating the
// group on first use) and returns it for the caller to populate. This is
// the usual builder-side construction path for repeating groups.
func (c *Container) AddGroupEntry(t tag.Tag) *Container {
	if _, exists := c.groups[t]; !exists {
		c.order = append(c.order, t)
	}
	entry := NewContainer()
	c.groups[t] = append(c.groups[t], entry)
	return entry
}

// GetGroup returns the repeating group entries at t, in wire order.
func (c *Container) GetGroup(t tag.Tag) ([]*Container, error) {
	g, ok := c.groups[t]
	if !ok {
		return nil, fmt.Errorf("%w: tag %d", ErrNotAGroup, t)
	}
	return g, nil
}

// MarkRepeating flags t as having decoded with more than one occurrence
// outside of a declared group context. Any subsequent scalar Get on t
// fails with ErrRepeatingTag. Used by the decoder only.
func (c *Container) MarkRepeating(t tag.Tag) {
	c.repeating[t] = true
}

// Order returns the top-level tags in insertion order, as needed by the
// encoder to reproduce wire order.
func (c *Container) Order() []tag.Tag {
	return c.order
}

// Message is a Container whose MsgType is fixed at construction and
// immutable thereafter. Reserved framing tags cannot be set manually;
// the codec owns them via SetFramingField.
type Message struct {
	body    *Container
	msgType string
}

// New creates a Message of the given MsgType with an empty body.
func New(msgType string) *Message {
	return &Message{body: NewContainer(), msgType: msgType}
}

// MsgType returns the message's tag-35 value, fixed at construction.
func (m *Message) MsgType() string {
	return m.msgType
}

// Set assigns a user tag on the message body. It rejects the reserved
// framing tags (see spec §3) and duplicate assignment.
func (m *Message) Set(t tag.Tag, value string) error {
	if reservedTags[t] {
		return fmt.Errorf("%w: tag %d", ErrReservedTag, t)
	}
	return m.body.Set(t, value)
}

// SetFramingField assigns a reserved framing tag, bypassing the manual-set
// restriction. Intended for use by package codec during decode; outbound
// framing fields (BeginString, BodyLength, CheckSum, MsgSeqNum,
// SendingTime, SenderCompID, TargetCompID) are otherwise injected directly
// by the encoder without touching the body container at all.
func (m *Message) SetFramingField(t tag.Tag, value string) {
	m.body.Replace(t, value)
}

// SetDecoded populates a scalar tag during decode: a tag seen a second time
// outside of a declared repeating group is marked repeating (spec §3)
// rather than silently overwritten or rejected as a duplicate. Used by
// package codec only; builder code should use Set.
func (m *Message) SetDecoded(t tag.Tag, value string) {
	if m.body.Has(t) {
		m.body.MarkRepeating(t)
		return
	}
	m.body.Replace(t, value)
}

// Get reads a scalar tag from the message body.
func (m *Message) Get(t tag.Tag) (string, error) {
	return m.body.Get(t)
}

// GetOr reads a scalar tag, returning def if absent or unreadable.
func (m *Message) GetOr(t tag.Tag, def string) string {
	return m.body.GetOr(t, def)
}

// Has reports whether t holds any value on the message.
func (m *Message) Has(t tag.Tag) bool {
	return m.body.Has(t)
}

// SetGroup installs a repeating group on the message body.
func (m *Message) SetGroup(t tag.Tag, entries []*Container) error {
	return m.body.SetGroup(t, entries)
}

// AddGroupEntry appends a new repeating-group entry on the message body.
func (m *Message) AddGroupEntry(t tag.Tag) *Container {
	return m.body.AddGroupEntry(t)
}

// GetGroup returns the repeating group entries at t.
func (m *Message) GetGroup(t tag.Tag) ([]*Container, error) {
	return m.body.GetGroup(t)
}

// Order returns the message body's user tags in insertion order.
func (m *Message) Order() []tag.Tag {
	return m.body.Order()
}

// Body exposes the underlying container, e.g. for schema validation which
// needs to walk tags generically.
func (m *Message) Body() *Container {
	return m.body
}

// SetRawSeqNum pre-assigns MsgSeqNum for the raw_seq_num encode path (spec
// §4.1): admin messages resent or gap-filled with an explicit sequence
// number rather than the next allocated one. Encode reads this value back
// via Get(tag.MsgSeqNum) instead of allocating from the session.
func (m *Message) SetRawSeqNum(n int) {
	m.body.Replace(tag.MsgSeqNum, strconv.Itoa(n))
}
