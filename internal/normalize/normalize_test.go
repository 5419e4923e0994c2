package normalize

import "testing"

// defaultExtensions mirrors the image extension set used in production runs.
var defaultExtensions = []string{".png", ".jpg", ".jpeg", ".avif", ".webp", ".svg"}

// TestNormalize verifies the canonicalization rules one by one.
func TestNormalize(t *testing.T) {
	t.Parallel()

	n := New(WithExtensions(defaultExtensions))

	t.Run("lowercases by default", func(t *testing.T) {
		t.Parallel()
		if got := n.Normalize("BG_Room.PNG"); got != "bg_room" {
			t.Errorf("expected 'bg_room', got %q", got)
		}
	})

	t.Run("unifies separators", func(t *testing.T) {
		t.Parallel()
		if got := n.Normalize(`characters\eileen.png`); got != "characters/eileen" {
			t.Errorf("expected 'characters/eileen', got %q", got)
		}
	})

	t.Run("strips recognized extension", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"logo.png", "logo.jpg", "logo.webp", "logo.svg"} {
			if got := n.Normalize(in); got != "logo" {
				t.Errorf("Normalize(%q) = %q, expected 'logo'", in, got)
			}
		}
	})

	t.Run("keeps unrecognized extension", func(t *testing.T) {
		t.Parallel()
		if got := n.Normalize("notes.txt"); got != "notes.txt" {
			t.Errorf("expected 'notes.txt', got %q", got)
		}
	})

	t.Run("strips leading ./ and /", func(t *testing.T) {
		t.Parallel()
		if got := n.Normalize("./gui/button.png"); got != "gui/button" {
			t.Errorf("expected 'gui/button', got %q", got)
		}
		if got := n.Normalize("/gui/button.png"); got != "gui/button" {
			t.Errorf("expected 'gui/button', got %q", got)
		}
	})

	t.Run("returns input unchanged when no rule applies", func(t *testing.T) {
		t.Parallel()
		if got := n.Normalize("bg_room"); got != "bg_room" {
			t.Errorf("expected 'bg_room', got %q", got)
		}
	})
}

// TestNormalizeRootPrefix verifies that the configured root prefix is
// removed so root-relative references and indexed paths compare equal.
func TestNormalizeRootPrefix(t *testing.T) {
	t.Parallel()

	n := New(
		WithExtensions(defaultExtensions),
		WithRootPrefix("images"),
	)

	t.Run("strips prefix from references", func(t *testing.T) {
		t.Parallel()
		if got := n.Normalize("images/button_idle.png"); got != "button_idle" {
			t.Errorf("expected 'button_idle', got %q", got)
		}
	})

	t.Run("prefix match is case-insensitive", func(t *testing.T) {
		t.Parallel()
		if got := n.Normalize("Images/Button_Idle.png"); got != "button_idle" {
			t.Errorf("expected 'button_idle', got %q", got)
		}
	})

	t.Run("leaves non-prefixed references alone", func(t *testing.T) {
		t.Parallel()
		if got := n.Normalize("gui/button_idle.png"); got != "gui/button_idle" {
			t.Errorf("expected 'gui/button_idle', got %q", got)
		}
	})

	t.Run("repeated prefix matches the indexed path", func(t *testing.T) {
		t.Parallel()

		// A file at <imagesRoot>/images/bg.png indexes under the
		// relative path "images/bg.png". A script referencing it as
		// "images/images/bg.png" must land on the same identifier.
		indexed := n.Normalize("images/bg.png")
		referenced := n.Normalize("images/images/bg.png")
		if indexed != referenced {
			t.Errorf("indexed %q and referenced %q identifiers differ", indexed, referenced)
		}
		if indexed != "bg" {
			t.Errorf("expected 'bg', got %q", indexed)
		}
	})
}

// TestNormalizeIdempotent verifies Normalize(Normalize(x)) == Normalize(x)
// for representative inputs, including the degenerate doubled-extension case.
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	n := New(
		WithExtensions(defaultExtensions),
		WithRootPrefix("images"),
	)

	inputs := []string{
		"BG_Room.PNG",
		`characters\Eileen Happy.png`,
		"images/gui/button.png",
		"images/images/bg.png",
		"sprite.png.png",
		"already_normalized",
		"",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

// TestNormalizeCaseSensitive verifies that case folding can be disabled.
func TestNormalizeCaseSensitive(t *testing.T) {
	t.Parallel()

	n := New(
		WithExtensions(defaultExtensions),
		WithCaseSensitive(true),
	)

	if got := n.Normalize("BG_Room.png"); got != "BG_Room" {
		t.Errorf("expected 'BG_Room', got %q", got)
	}
}

// TestBasename verifies extraction of the final path element.
func TestBasename(t *testing.T) {
	t.Parallel()

	n := New(WithExtensions(defaultExtensions))

	tests := map[string]string{
		"characters/eileen": "eileen",
		"a/b/c":             "c",
		"bg_room":           "bg_room",
	}
	for in, want := range tests {
		if got := n.Basename(in); got != want {
			t.Errorf("Basename(%q) = %q, expected %q", in, got, want)
		}
	}
}
