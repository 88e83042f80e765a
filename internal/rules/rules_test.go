package rules

import (
	"reflect"
	"testing"

	"pkmn_guesser/internal/domain"
)

var board = []domain.Candidate{
	{ID: 1, Name: "bulbasaur", Types: []string{"grass", "poison"}},
	{ID: 4, Name: "charmander", Types: []string{"fire"}},
	{ID: 7, Name: "squirtle", Types: []string{"water"}},
	{ID: 6, Name: "charizard", Types: []string{"fire", "flying"}},
}

func TestMatches(t *testing.T) {
	cases := []struct {
		name     string
		id       int
		criteria []string
		isType   bool
		want     bool
	}{
		{"type hit", 4, []string{"fire"}, true, true},
		{"type miss", 7, []string{"fire"}, true, false},
		{"any of two types", 7, []string{"fire", "water"}, true, true},
		{"secondary type counts", 1, []string{"poison"}, true, true},
		{"single structural", 4, []string{"single"}, false, true},
		{"single structural miss", 1, []string{"single"}, false, false},
		{"dual structural", 6, []string{"dual"}, false, true},
		{"empty criteria", 4, nil, false, false},
		{"unknown structural tag", 4, []string{"triple"}, false, false},
	}

	byID := make(map[int]domain.Candidate)
	for _, c := range board {
		byID[c.ID] = c
	}

	for _, tc := range cases {
		if got := Matches(byID[tc.id], tc.criteria, tc.isType); got != tc.want {
			t.Fatalf("%s: Matches = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestComputeEliminations(t *testing.T) {
	cases := []struct {
		name     string
		criteria []string
		isType   bool
		yes      bool
		want     []int
	}{
		// answered yes: everything that does not match goes
		{"fire yes", []string{"fire"}, true, true, []int{1, 7}},
		// answered no: everything that matches goes
		{"fire no", []string{"fire"}, true, false, []int{4, 6}},
		{"single yes", []string{"single"}, false, true, []int{1, 6}},
		{"dual no", []string{"dual"}, false, false, []int{1, 6}},
	}

	for _, tc := range cases {
		got := ComputeEliminations(board, tc.criteria, tc.isType, tc.yes)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: ComputeEliminations = %v; want %v", tc.name, got, tc.want)
		}
	}
}

// Both players must derive identical eliminations from the same list, since
// the asker applies the result for both sides without re-validation.
func TestComputeEliminationsDeterministic(t *testing.T) {
	first := ComputeEliminations(board, []string{"fire", "grass"}, true, false)
	for i := 0; i < 10; i++ {
		again := ComputeEliminations(board, []string{"fire", "grass"}, true, false)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: got %v; want %v", i, again, first)
		}
	}
}

func TestComputeEliminationsDoesNotMutate(t *testing.T) {
	snapshot := make([]domain.Candidate, len(board))
	copy(snapshot, board)

	ComputeEliminations(board, []string{"water"}, true, true)
	if !reflect.DeepEqual(board, snapshot) {
		t.Fatal("candidate list was mutated")
	}
}

func TestUnion(t *testing.T) {
	cases := []struct {
		name     string
		existing []int
		added    []int
		want     []int
	}{
		{"disjoint", []int{1, 2}, []int{3}, []int{1, 2, 3}},
		{"overlap deduped", []int{1, 2}, []int{2, 3}, []int{1, 2, 3}},
		{"empty existing", nil, []int{5}, []int{5}},
		{"empty added", []int{4}, nil, []int{4}},
		{"existing order kept", []int{9, 3, 7}, []int{3, 1}, []int{9, 3, 7, 1}},
	}

	for _, tc := range cases {
		if got := Union(tc.existing, tc.added); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: Union = %v; want %v", tc.name, got, tc.want)
		}
	}
}

// The eliminated set may only grow: unioning twice with the same answer is
// the same as once.
func TestUnionIdempotent(t *testing.T) {
	added := ComputeEliminations(board, []string{"fire"}, true, true)
	once := Union(nil, added)
	twice := Union(once, added)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("got %v after second union; want %v", twice, once)
	}
}
