// Package fairness implements the provably-fair commitment used to perturb
// peg collisions. A round's randomness is fixed before the ball is launched:
// the public digest is SHA-256(serverSeed || clientSeed) and every collision
// reads the next hex nibble of that digest through an explicit cursor.
package fairness

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// SeedSize is the length in bytes of generated server and client seeds.
const SeedSize = 32

var (
	// ErrNotSealed is returned when the server seed is requested before the
	// round that consumed the commitment has settled.
	ErrNotSealed = errors.New("commitment is not sealed")
	// ErrInvalidSeed is returned for seeds that are not valid hex.
	ErrInvalidSeed = errors.New("invalid seed encoding")
)

// GenerateCommitmentSeed returns SeedSize bytes from crypto/rand.
func GenerateCommitmentSeed() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("read commitment seed: %w", err)
	}
	return seed, nil
}

// Digest hashes the concatenation of both seeds and returns it hex encoded.
func Digest(serverSeed, clientSeed []byte) string {
	h := sha256.New()
	h.Write(serverSeed)
	h.Write(clientSeed)
	return hex.EncodeToString(h.Sum(nil))
}

// NextKick reads the nibble at cursor (mod len(digest)) and maps it linearly
// onto [-0.5, 0.5]. It returns the kick and the advanced cursor. An empty
// digest or a non-hex character yields a zero kick.
func NextKick(digest string, cursor int) (float64, int) {
	if len(digest) == 0 {
		return 0, cursor + 1
	}
	idx := cursor % len(digest)
	if idx < 0 {
		idx += len(digest)
	}
	v, ok := nibble(digest[idx])
	if !ok {
		return 0, cursor + 1
	}
	return (float64(v) - 7.5) / 15.0, cursor + 1
}

func nibble(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// KickStream is a replayable view over a digest with its own cursor.
type KickStream struct {
	digest string
	cursor int
}

// NewKickStream starts a stream at cursor 0.
func NewKickStream(digest string) *KickStream {
	return &KickStream{digest: digest}
}

// Next returns the next kick and advances the cursor by one.
func (s *KickStream) Next() float64 {
	kick, next := NextKick(s.digest, s.cursor)
	s.cursor = next
	return kick
}

// Cursor is the number of kicks consumed so far.
func (s *KickStream) Cursor() int {
	return s.cursor
}

// Digest returns the digest backing the stream.
func (s *KickStream) Digest() string {
	return s.digest
}

// RevealedSeeds is the disclosed half of a commitment, hex encoded.
type RevealedSeeds struct {
	ServerSeed string `json:"server_seed"`
	ClientSeed string `json:"client_seed"`
	Digest     string `json:"digest"`
}

// Commitment binds a hidden server seed and a client seed to a public digest.
// The server seed stays hidden until Seal is called after settlement.
type Commitment struct {
	serverSeed []byte
	clientSeed []byte
	digest     string
	sealed     bool
}

// NewCommitment draws a fresh server seed. When clientSeed is empty a random
// client seed is generated as well.
func NewCommitment(clientSeed []byte) (*Commitment, error) {
	serverSeed, err := GenerateCommitmentSeed()
	if err != nil {
		return nil, err
	}
	if len(clientSeed) == 0 {
		clientSeed, err = GenerateCommitmentSeed()
		if err != nil {
			return nil, err
		}
	}
	return NewCommitmentFromSeeds(serverSeed, clientSeed), nil
}

// NewCommitmentFromSeeds builds a commitment from known seeds (replay, tests).
func NewCommitmentFromSeeds(serverSeed, clientSeed []byte) *Commitment {
	s := append([]byte(nil), serverSeed...)
	c := append([]byte(nil), clientSeed...)
	return &Commitment{
		serverSeed: s,
		clientSeed: c,
		digest:     Digest(s, c),
	}
}

// Digest is the public commitment, safe to show before settlement.
func (c *Commitment) Digest() string {
	return c.digest
}

// ClientSeed returns the hex encoded client seed.
func (c *Commitment) ClientSeed() string {
	return hex.EncodeToString(c.clientSeed)
}

// Stream returns a new kick stream over the digest starting at cursor 0.
func (c *Commitment) Stream() *KickStream {
	return NewKickStream(c.digest)
}

// Seal marks the commitment as consumed; the server seed may now be revealed.
func (c *Commitment) Seal() {
	c.sealed = true
}

// Sealed reports whether Seal has been called.
func (c *Commitment) Sealed() bool {
	return c.sealed
}

// Reveal discloses the seeds of a sealed commitment.
func (c *Commitment) Reveal() (RevealedSeeds, error) {
	if !c.sealed {
		return RevealedSeeds{}, ErrNotSealed
	}
	return RevealedSeeds{
		ServerSeed: hex.EncodeToString(c.serverSeed),
		ClientSeed: hex.EncodeToString(c.clientSeed),
		Digest:     c.digest,
	}, nil
}

// Verify recomputes the digest from revealed seeds and compares it with the
// published one.
func Verify(r RevealedSeeds) (bool, error) {
	serverSeed, err := hex.DecodeString(r.ServerSeed)
	if err != nil {
		return false, fmt.Errorf("server seed: %w", ErrInvalidSeed)
	}
	clientSeed, err := hex.DecodeString(r.ClientSeed)
	if err != nil {
		return false, fmt.Errorf("client seed: %w", ErrInvalidSeed)
	}
	got := Digest(serverSeed, clientSeed)
	return subtle.ConstantTimeCompare([]byte(got), []byte(r.Digest)) == 1, nil
}
