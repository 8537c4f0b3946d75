package mention

import "testing"

func TestSlug(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"Sunflower Seed", "sunflower-seed"},
		{"sunflower-seed", "sunflower-seed"},
		{"  Sunflower   Seed  ", "sunflower-seed"},
		{"DJ Jhai!", "dj-jhai"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveBareName(t *testing.T) {
	t.Parallel()
	r := NewStatic(Config{Tags: map[string]string{
		"Sunflower Seed": "@sunflowers",
	}})
	tag, ok := r.Resolve("sunflower seed", "seeds")
	if !ok || tag != "@sunflowers" {
		t.Fatalf("got (%q, %v)", tag, ok)
	}
}

func TestResolvePrefixedName(t *testing.T) {
	t.Parallel()
	r := NewStatic(Config{
		Prefixes: map[string]string{"seeds": "Seed Ping "},
		Tags:     map[string]string{"seed-ping-carrot": "@carrot_crew"},
	})
	tag, ok := r.Resolve("Carrot", "seeds")
	if !ok || tag != "@carrot_crew" {
		t.Fatalf("got (%q, %v)", tag, ok)
	}
}

func TestResolveCategoryShapes(t *testing.T) {
	t.Parallel()
	r := NewStatic(Config{Tags: map[string]string{
		"weathers-blood-moon": "@blood_moon", // matches "Weathers - Blood Moon"
	}})
	tag, ok := r.Resolve("Blood Moon", "weathers")
	if !ok || tag != "@blood_moon" {
		t.Fatalf("got (%q, %v)", tag, ok)
	}
}

func TestResolveMisses(t *testing.T) {
	t.Parallel()
	r := NewStatic(Config{Tags: map[string]string{"carrot": "@carrots"}})
	if _, ok := r.Resolve("Tomato", "seeds"); ok {
		t.Fatal("unknown name resolved")
	}
	if _, ok := r.Resolve("  ", "seeds"); ok {
		t.Fatal("blank name resolved")
	}
}

func TestNewStaticDropsEmptyTags(t *testing.T) {
	t.Parallel()
	r := NewStatic(Config{Tags: map[string]string{"carrot": "   "}})
	if _, ok := r.Resolve("Carrot", "seeds"); ok {
		t.Fatal("empty tag kept")
	}
}
