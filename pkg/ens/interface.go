package ens

import "github.com/ethereum/go-ethereum/crypto"

// InterfaceID is an ERC-165 capability identifier: the XOR of the 4-byte ABI
// selectors of every operation in the capability set.
type InterfaceID [4]byte

// Selector computes the 4-byte ABI selector for a function signature.
func Selector(sig string) InterfaceID {
	var id InterfaceID
	copy(id[:], crypto.Keccak256([]byte(sig))[:4])
	return id
}

// XOR combines two identifiers into the id of their union.
func (id InterfaceID) XOR(other InterfaceID) InterfaceID {
	var out InterfaceID
	for i := range id {
		out[i] = id[i] ^ other[i]
	}
	return out
}

var (
	// InterfaceMetaID identifies the capability probe itself.
	InterfaceMetaID = Selector("supportsInterface(bytes4)")

	// RegistrarInterfaceID identifies the subdomain registrar capability set.
	RegistrarInterfaceID = Selector("query(bytes32,string)").
				XOR(Selector("register(bytes32,string,address,address,address)")).
				XOR(Selector("rentDue(bytes32,string)")).
				XOR(Selector("payRent(bytes32,string)"))
)
