package merkle

import (
	"bytes"
	"testing"
)

func testAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func TestProofRoundTrip(t *testing.T) {
	leaves := [][32]byte{
		LeafForAddress(testAddress(0x01)),
		LeafForAddress(testAddress(0x02)),
		LeafForAddress(testAddress(0x03)),
	}
	tree := NewTree(leaves)
	root := tree.Root()
	for _, leaf := range leaves {
		proof, ok := tree.Proof(leaf)
		if !ok {
			t.Fatalf("leaf missing from its own tree")
		}
		if !VerifyProof(proof, root, leaf) {
			t.Fatalf("proof rejected for member leaf")
		}
	}
}

func TestProofRejectsNonMember(t *testing.T) {
	members := [][32]byte{
		LeafForAddress(testAddress(0x0a)),
		LeafForAddress(testAddress(0x0b)),
	}
	tree := NewTree(members)
	outsider := LeafForAddress(testAddress(0x0c))
	if _, ok := tree.Proof(outsider); ok {
		t.Fatalf("tree produced a proof for a non-member")
	}
	proof, _ := tree.Proof(members[0])
	if VerifyProof(proof, tree.Root(), outsider) {
		t.Fatalf("verify accepted a non-member leaf")
	}
}

func TestRootIndependentOfLeafOrder(t *testing.T) {
	a := LeafForAddress(testAddress(0x11))
	b := LeafForAddress(testAddress(0x22))
	c := LeafForAddress(testAddress(0x33))
	first := NewTree([][32]byte{a, b, c}).Root()
	second := NewTree([][32]byte{c, a, b}).Root()
	if first != second {
		t.Fatalf("root depends on insertion order: %x vs %x", first, second)
	}
}

func TestSingleLeafTree(t *testing.T) {
	leaf := LeafForAddress(testAddress(0x7f))
	tree := NewTree([][32]byte{leaf})
	if tree.Root() != leaf {
		t.Fatalf("single-leaf root must equal the leaf")
	}
	proof, ok := tree.Proof(leaf)
	if !ok || len(proof) != 0 {
		t.Fatalf("single-leaf proof must be empty, got %d nodes", len(proof))
	}
	if !VerifyProof(proof, tree.Root(), leaf) {
		t.Fatalf("empty proof rejected")
	}
}
