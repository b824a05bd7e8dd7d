package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/presenter/pkg/catalog"
)

func TestEntry_Speech(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry catalog.Entry
		want  string
	}{
		{
			name:  "falls back to name",
			entry: catalog.Entry{Name: "lambda"},
			want:  "lambda",
		},
		{
			name:  "blank pronunciation falls back",
			entry: catalog.Entry{Name: "lambda", Pronunciation: "   "},
			want:  "lambda",
		},
		{
			name:  "pronunciation wins",
			entry: catalog.Entry{Name: "gif", Pronunciation: `<phoneme alphabet="ipa" ph="dʒɪf">gif</phoneme>`},
			want:  `<phoneme alphabet="ipa" ph="dʒɪf">gif</phoneme>`,
		},
		{
			name:  "name is escaped",
			entry: catalog.Entry{Name: "salt & pepper <live>"},
			want:  "salt &amp; pepper &lt;live&gt;",
		},
		{
			name:  "apostrophes are left alone",
			entry: catalog.Entry{Name: "pikachu i can't see you"},
			want:  "pikachu i can't see you",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.entry.Speech(); got != tc.want {
				t.Errorf("Speech() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidate_EmptyName(t *testing.T) {
	t.Parallel()

	err := catalog.Validate([]catalog.Entry{
		{Name: "lambda", Filename: "lambda.pptx"},
		{Name: "  ", Filename: "blank.pptx"},
	})
	if !errors.Is(err, catalog.ErrEmptyName) {
		t.Fatalf("Validate() err = %v, want ErrEmptyName", err)
	}
	if !strings.Contains(err.Error(), "entries[1]") {
		t.Errorf("error should name the offending index, got: %v", err)
	}
}

func TestValidate_RejectsNamesThatFoldToNothing(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"\u0301", "\u0301\u0308 \u0327", "\t\n"} {
		err := catalog.Validate([]catalog.Entry{{Name: name, Filename: "x.pptx"}})
		if !errors.Is(err, catalog.ErrEmptyName) {
			t.Errorf("Validate(%q) err = %v, want ErrEmptyName", name, err)
		}
	}
	if err := catalog.Validate([]catalog.Entry{{Name: "e\u0301", Filename: "e.pptx"}}); err != nil {
		t.Errorf("a letter with an accent is a valid name, got %v", err)
	}
}

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"  Lambda  ", "lambda"},
		{"LÁMBDÀ", "lambda"},
		{"knock\tknock   jokes", "knock knock jokes"},
		{"\uFB01le", "file"},
		{"\u0301", ""},
	}
	for _, tc := range tests {
		if got := catalog.Fold(tc.in); got != tc.want {
			t.Errorf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidate_DuplicatesAllowed(t *testing.T) {
	t.Parallel()

	err := catalog.Validate([]catalog.Entry{
		{Name: "lambda", Filename: "a.pptx"},
		{Name: "Lambda", Filename: "b.pptx"},
	})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_Empty(t *testing.T) {
	t.Parallel()
	if err := catalog.Validate(nil); err != nil {
		t.Fatalf("Validate(nil) = %v, want nil", err)
	}
}

func TestDecode_YAMLDocument(t *testing.T) {
	t.Parallel()

	doc := `
presentations:
  - name: lambda
    filename: lambda.pptx
  - name: knock knock jokes for dummies
    filename: knock_knock_for_dummies.pptx
    pronunciation: knock knock jokes for dummies
`
	entries, err := catalog.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Name != "lambda" || entries[0].Filename != "lambda.pptx" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Pronunciation == "" {
		t.Error("entries[1].Pronunciation should be set")
	}
}

func TestDecode_JSONList(t *testing.T) {
	t.Parallel()

	doc := `[{"name":"pikachu i can't see you","filename":"pikachu.pptx"},{"name":"lambda","filename":"lambda.pptx"}]`
	entries, err := catalog.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Name != "pikachu i can't see you" {
		t.Errorf("entries[0].Name = %q", entries[0].Name)
	}
}

func TestDecode_EmptyDocument(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"", "[]", "{}", "presentations: []"} {
		entries, err := catalog.Decode(strings.NewReader(doc))
		if err != nil {
			t.Errorf("Decode(%q): %v", doc, err)
			continue
		}
		if len(entries) != 0 {
			t.Errorf("Decode(%q) = %d entries, want 0", doc, len(entries))
		}
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := catalog.Decode(strings.NewReader("- name: lambda\n  file: lambda.pptx\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestDecode_RejectsBlankName(t *testing.T) {
	t.Parallel()

	_, err := catalog.Decode(strings.NewReader("- name: \"\"\n  filename: x.pptx\n"))
	if !errors.Is(err, catalog.ErrEmptyName) {
		t.Fatalf("Decode err = %v, want ErrEmptyName", err)
	}
}

func TestDecode_RejectsScalar(t *testing.T) {
	t.Parallel()

	if _, err := catalog.Decode(strings.NewReader("just a string")); err == nil {
		t.Fatal("expected error for scalar document, got nil")
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	entries := []catalog.Entry{{Name: "a", Filename: "a.pptx"}, {Name: "b", Filename: "b.pptx"}}
	if !catalog.Contains(entries, catalog.Entry{Name: "b", Filename: "b.pptx"}) {
		t.Error("Contains should find b")
	}
	if catalog.Contains(entries, catalog.Entry{Name: "b", Filename: "other.pptx"}) {
		t.Error("Contains should compare every field")
	}
}
