package levels

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	// StartPath serves the first level.
	StartPath = "/"

	// CompletedPath serves the terminal congratulations view.
	CompletedPath = "/congratulations"

	// LevelPathPrefix prefixes the unguessable path of levels 2..N.
	LevelPathPrefix = "/level/"

	// pathTokenBytes is the entropy of each level token (128 bits).
	pathTokenBytes = 16
)

// Paths maps levels to the unguessable routes that serve them.
// Paths is generated once per process and is immutable afterwards.
type Paths struct {
	byLevel map[ID]string
	byToken map[string]ID
}

// GeneratePaths creates a route for every level in reg.
// The first level is served at StartPath and the Completed marker at
// CompletedPath; every other level gets LevelPathPrefix plus a random
// URL-safe token read from random. If random is nil, crypto/rand is used.
func GeneratePaths(reg *Registry, random io.Reader) (*Paths, error) {
	if random == nil {
		random = rand.Reader
	}

	p := &Paths{
		byLevel: make(map[ID]string, reg.Count()+1),
		byToken: make(map[string]ID, reg.Count()),
	}
	p.byLevel[reg.First()] = StartPath
	p.byLevel[reg.Terminal()] = CompletedPath

	for id := reg.First() + 1; id <= reg.Last(); id++ {
		token, err := newToken(random)
		if err != nil {
			return nil, fmt.Errorf("failed to generate path for level %d: %w", id, err)
		}
		if _, dup := p.byToken[token]; dup {
			return nil, fmt.Errorf("duplicate path token for level %d", id)
		}
		p.byToken[token] = id
		p.byLevel[id] = LevelPathPrefix + token
	}

	return p, nil
}

// Path returns the route serving id.
func (p *Paths) Path(id ID) (string, bool) {
	path, ok := p.byLevel[id]
	return path, ok
}

// LevelForToken returns the level served under LevelPathPrefix+token.
func (p *Paths) LevelForToken(token string) (ID, bool) {
	id, ok := p.byToken[token]
	return id, ok
}

func newToken(random io.Reader) (string, error) {
	buf := make([]byte, pathTokenBytes)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
