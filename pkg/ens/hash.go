// Package ens implements the hierarchical name hashing scheme of the external
// naming registry (EIP-137) and the capability identifiers the registrar
// answers for.
//
// Node identifiers compose recursively: the node for "alice.example" is
// keccak256(node("example") || keccak256("alice")). Labels are hashed raw;
// Unicode normalization is a caller responsibility and is never applied here.
package ens

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroNode is the root of the name hierarchy and the "no node" value.
var ZeroNode = common.Hash{}

// LabelHash hashes a single name segment.
func LabelHash(label string) common.Hash {
	return crypto.Keccak256Hash([]byte(label))
}

// NameHash maps a full dot-separated name to its node identifier.
func NameHash(name string) common.Hash {
	if name == "" {
		return ZeroNode
	}
	labels := strings.Split(name, ".")
	labelHash := crypto.Keccak256([]byte(labels[len(labels)-1]))
	remainderHash := NameHash(strings.Join(labels[:len(labels)-1], ".")).Bytes()
	return crypto.Keccak256Hash(append(remainderHash, labelHash...))
}

// SubnodeHash derives a child node from a parent node and a label hash.
func SubnodeHash(parent, labelHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(append(parent.Bytes(), labelHash.Bytes()...))
}
