// Package auth issues and verifies the bearer tokens and password hashes
// used by the mock playground backend.
//
//	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "dev"})
//	signed, err := tokens.Issue(auth.Identity{Username: "manager", Role: "manager"})
//	claims, err := tokens.Parse(signed)
//
//	hasher := auth.NewBcryptHasher(auth.WithCost(bcrypt.MinCost))
//	hash, err := hasher.Hash("manager123")
//	err = hasher.Verify("manager123", hash)
package auth
