// Package model defines the entities of the conversation store and the
// record descriptors that declare how they are stored.
//
// Every entity (Agent, Meeting, Chat, Membership) implements Record. A
// Record's Descriptor lists its columns in storage order; each Column carries
// a human-readable Label used only for introspection. The Registry collects
// the descriptors in declaration order and is what the store turns into DDL.
//
// Entities are append-only: they are created once and linked into
// relationships, never amended or deleted.
//
// The package also holds the conversation history view (Relabel), which
// renders a meeting's chats from one agent's point of view.
package model
