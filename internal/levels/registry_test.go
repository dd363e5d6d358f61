package levels

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testDefs(n int) []Definition {
	defs := make([]Definition, n)
	for i := range defs {
		defs[i] = Definition{
			ID:           ID(i + 1),
			Title:        "level",
			Answer:       "answer",
			SystemPrompt: "prompt",
		}
	}
	return defs
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		defs    []Definition
		wantErr error
	}{
		{"valid", testDefs(3), nil},
		{"empty", nil, ErrEmptyRegistry},
		{"starts at two", []Definition{{ID: 2, Answer: "a", SystemPrompt: "p"}}, ErrNonContiguous},
		{"gap", []Definition{
			{ID: 1, Answer: "a", SystemPrompt: "p"},
			{ID: 3, Answer: "a", SystemPrompt: "p"},
		}, ErrNonContiguous},
		{"missing answer", []Definition{{ID: 1, Answer: "  ", SystemPrompt: "p"}}, ErrIncomplete},
		{"missing prompt", []Definition{{ID: 1, Answer: "a"}}, ErrIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.defs)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	reg, err := New(testDefs(5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for id := ID(1); id <= 5; id++ {
		def, err := reg.Get(id)
		if err != nil {
			t.Fatalf("Get(%d) error = %v", id, err)
		}
		if def.ID != id {
			t.Errorf("Get(%d).ID = %d", id, def.ID)
		}
	}

	for _, id := range []ID{0, -1, 6, 100} {
		if _, err := reg.Get(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%d) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestRegistry_IsImmutable(t *testing.T) {
	defs := testDefs(1)
	defs[0].Hints = []string{"original"}
	reg, err := New(defs)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	defs[0].Answer = "changed"
	defs[0].Hints[0] = "changed"

	def, _ := reg.Get(1)
	def.Hints[0] = "mutated by caller"

	again, _ := reg.Get(1)
	if again.Answer != "answer" {
		t.Errorf("Answer = %q, registry was modified through input slice", again.Answer)
	}
	if again.Hints[0] != "original" {
		t.Errorf("Hints[0] = %q, registry was modified", again.Hints[0])
	}
}

func TestRegistry_Ordering(t *testing.T) {
	reg, _ := New(testDefs(5))

	if reg.First() != 1 || reg.Last() != 5 || reg.Terminal() != 6 {
		t.Fatalf("First/Last/Terminal = %d/%d/%d, want 1/5/6", reg.First(), reg.Last(), reg.Terminal())
	}
	if !reg.IsTerminal(6) || reg.IsTerminal(5) {
		t.Error("IsTerminal mismatch")
	}

	tests := []struct {
		id   ID
		want ID
	}{
		{1, 2},
		{4, 5},
		{5, 6},
		{6, 6},
	}
	for _, tt := range tests {
		if got := reg.Next(tt.id); got != tt.want {
			t.Errorf("Next(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestOffice(t *testing.T) {
	reg := Office()

	if reg.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", reg.Count())
	}

	first, _ := reg.Get(1)
	if first.Answer != "412338" {
		t.Errorf("level 1 answer = %q, want 412338", first.Answer)
	}

	withMarker := 0
	for id := reg.First(); id <= reg.Last(); id++ {
		def, _ := reg.Get(id)
		if def.FallbackReply == "" {
			t.Errorf("level %d has no fallback reply", id)
		}
		if len(def.Hints) == 0 {
			t.Errorf("level %d has no hints", id)
		}
		if def.BlockedReplyMarker != "" {
			withMarker++
			if id != reg.Last() {
				t.Errorf("level %d blocks replies, only the final level should", id)
			}
		}
	}
	if withMarker != 1 {
		t.Errorf("levels with a blocked reply marker = %d, want 1", withMarker)
	}

	door, _ := reg.Get(4)
	if !strings.Contains(door.SystemPrompt, maintenanceLogMarker) {
		t.Error("door prompt should describe the maintenance log format the final level blocks")
	}
}

func TestGeneratePaths(t *testing.T) {
	reg := Office()
	paths, err := GeneratePaths(reg, nil)
	if err != nil {
		t.Fatalf("GeneratePaths() error = %v", err)
	}

	if p, _ := paths.Path(1); p != StartPath {
		t.Errorf("Path(1) = %q, want %q", p, StartPath)
	}
	if p, _ := paths.Path(reg.Terminal()); p != CompletedPath {
		t.Errorf("Path(terminal) = %q, want %q", p, CompletedPath)
	}

	seen := make(map[string]bool)
	for id := ID(2); id <= reg.Last(); id++ {
		p, ok := paths.Path(id)
		if !ok {
			t.Fatalf("Path(%d) missing", id)
		}
		if !strings.HasPrefix(p, LevelPathPrefix) {
			t.Errorf("Path(%d) = %q, want prefix %q", id, p, LevelPathPrefix)
		}
		token := strings.TrimPrefix(p, LevelPathPrefix)
		if len(token) < 20 {
			t.Errorf("token %q too short to be unguessable", token)
		}
		if seen[token] {
			t.Errorf("duplicate token %q", token)
		}
		seen[token] = true

		got, ok := paths.LevelForToken(token)
		if !ok || got != id {
			t.Errorf("LevelForToken(%q) = %d, %v, want %d", token, got, ok, id)
		}
	}

	if _, ok := paths.LevelForToken("2"); ok {
		t.Error("numeric token should not resolve")
	}
	if _, ok := paths.Path(0); ok {
		t.Error("Path(0) should not exist")
	}
}

func TestGeneratePaths_DifferPerProcess(t *testing.T) {
	reg := Office()
	a, _ := GeneratePaths(reg, nil)
	b, _ := GeneratePaths(reg, nil)

	pa, _ := a.Path(2)
	pb, _ := b.Path(2)
	if pa == pb {
		t.Errorf("two generations produced the same path %q", pa)
	}
}

func TestGeneratePaths_ShortRandom(t *testing.T) {
	_, err := GeneratePaths(Office(), bytes.NewReader([]byte{1, 2, 3}))
	if err == nil {
		t.Fatal("expected error when random source is exhausted")
	}
}

func TestGeneratePaths_DuplicateToken(t *testing.T) {
	// A constant source yields identical tokens.
	_, err := GeneratePaths(Office(), bytes.NewReader(make([]byte, 1024)))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("error = %v, want duplicate token error", err)
	}
}
