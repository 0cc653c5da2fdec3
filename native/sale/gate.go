package sale

import "spotsale/crypto/merkle"

// CheckAccess applies the whitelist gate. With the whitelist disabled every
// account passes; with it enabled the caller must supply a valid merkle
// proof for keccak(account) against the configured root. Replacing the root
// immediately invalidates proofs of removed accounts.
func CheckAccess(account [20]byte, proof [][32]byte, enabled bool, root [32]byte) error {
	if !enabled {
		return nil
	}
	if !merkle.VerifyProof(proof, root, merkle.LeafForAddress(account)) {
		return ErrInvalidProof
	}
	return nil
}
