package merkle

import (
	"bytes"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// The whitelist trees use keccak256 with sorted pairs: each parent is
// keccak(min(a,b) || max(a,b)), and an odd node at the end of a level is
// promoted unchanged. Proof verification therefore needs no position bits.

// LeafForAddress derives the whitelist leaf for an account address.
func LeafForAddress(addr [20]byte) [32]byte {
	var leaf [32]byte
	copy(leaf[:], ethcrypto.Keccak256(addr[:]))
	return leaf
}

func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	return out
}

// VerifyProof recomputes the root from leaf and proof and compares it against
// the expected root.
func VerifyProof(proof [][32]byte, root [32]byte, leaf [32]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// Tree is an in-memory sorted-pair keccak merkle tree. It exists for the
// operator tooling and tests that need to produce roots and proofs; the
// engine itself only ever verifies.
type Tree struct {
	layers [][][32]byte
}

// NewTree builds a tree over the given leaves. Leaves are deduplicated and
// sorted so that the root is independent of insertion order.
func NewTree(leaves [][32]byte) *Tree {
	unique := make([][32]byte, 0, len(leaves))
	seen := make(map[[32]byte]struct{}, len(leaves))
	for _, leaf := range leaves {
		if _, ok := seen[leaf]; ok {
			continue
		}
		seen[leaf] = struct{}{}
		unique = append(unique, leaf)
	}
	sort.Slice(unique, func(i, j int) bool {
		return bytes.Compare(unique[i][:], unique[j][:]) < 0
	})
	layers := [][][32]byte{unique}
	for len(layers[len(layers)-1]) > 1 {
		current := layers[len(layers)-1]
		next := make([][32]byte, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 == len(current) {
				next = append(next, current[i])
				continue
			}
			next = append(next, hashPair(current[i], current[i+1]))
		}
		layers = append(layers, next)
	}
	return &Tree{layers: layers}
}

// Root returns the tree root, or the zero hash for an empty tree.
func (t *Tree) Root() [32]byte {
	if t == nil || len(t.layers) == 0 || len(t.layers[len(t.layers)-1]) == 0 {
		return [32]byte{}
	}
	return t.layers[len(t.layers)-1][0]
}

// Proof returns the sibling path for the given leaf. The second return is
// false when the leaf is not part of the tree.
func (t *Tree) Proof(leaf [32]byte) ([][32]byte, bool) {
	if t == nil || len(t.layers) == 0 {
		return nil, false
	}
	index := -1
	for i, candidate := range t.layers[0] {
		if candidate == leaf {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, false
	}
	proof := make([][32]byte, 0, len(t.layers))
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := index ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		index /= 2
	}
	return proof, true
}
