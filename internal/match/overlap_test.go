package match

import (
	"reflect"
	"testing"
)

func TestOverlapBothSides(t *testing.T) {
	projectTerms := []string{"python", "fastapi", "ai"}
	repoTerms := []string{"fastapi", "web", "python"}

	score, matched := Overlap(projectTerms, repoTerms)

	if !reflect.DeepEqual(matched, []string{"fastapi", "python"}) {
		t.Fatalf("unexpected matched terms: %v", matched)
	}

	want := 2.0 / 3.0
	if score != want {
		t.Fatalf("expected score %v, got %v", want, score)
	}
}

func TestOverlapEmptyInputs(t *testing.T) {
	for _, tc := range []struct {
		name          string
		project, repo []string
	}{
		{"both empty", nil, nil},
		{"project empty", nil, []string{"go"}},
		{"repo empty", []string{"go"}, nil},
		{"whitespace only", []string{"  "}, []string{"go"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			score, matched := Overlap(tc.project, tc.repo)
			if score != 0 {
				t.Fatalf("expected zero score, got %v", score)
			}
			if len(matched) != 0 {
				t.Fatalf("expected no matches, got %v", matched)
			}
		})
	}
}

func TestOverlapCaseFolding(t *testing.T) {
	score, matched := Overlap([]string{"Python", "FastAPI"}, []string{"python", "fastapi"})
	if score != 1.0 {
		t.Fatalf("expected full overlap, got %v", score)
	}
	if !reflect.DeepEqual(matched, []string{"fastapi", "python"}) {
		t.Fatalf("unexpected matched terms: %v", matched)
	}
}

func TestOverlapNoIntersection(t *testing.T) {
	score, matched := Overlap([]string{"rust", "wasm"}, []string{"python", "django"})
	if score != 0 || matched != nil {
		t.Fatalf("expected (0, nil), got (%v, %v)", score, matched)
	}
}

func TestOverlapDeduplicatesTerms(t *testing.T) {
	// Duplicate declared terms must not inflate the denominator.
	score, _ := Overlap([]string{"go", "go"}, []string{"go"})
	if score != 1.0 {
		t.Fatalf("expected score 1.0, got %v", score)
	}
}

func TestOverlapScoreBounds(t *testing.T) {
	cases := [][2][]string{
		{{"a"}, {"a", "b", "c"}},
		{{"a", "b", "c"}, {"a"}},
		{{"a", "b"}, {"a", "b"}},
	}
	for _, c := range cases {
		score, _ := Overlap(c[0], c[1])
		if score < 0 || score > 1 {
			t.Fatalf("score %v out of [0,1] for %v vs %v", score, c[0], c[1])
		}
	}
}
