package ignore

import "testing"

type ignoreTestValue struct {
	path      string
	directory bool
	expected  bool
}

type ignoreTestCase struct {
	patterns []string
	tests    []ignoreTestValue
}

func (c *ignoreTestCase) run(t *testing.T) {
	for _, p := range c.patterns {
		if !Valid(p) {
			t.Fatal("invalid pattern detected:", p)
		}
	}

	matcher, err := New(c.patterns)
	if err != nil {
		t.Fatal("unable to create matcher:", err)
	}

	for _, v := range c.tests {
		if got := matcher.Ignored(v.path, v.directory); got != v.expected {
			t.Errorf("ignore behavior not as expected for %s: got %v, expected %v", v.path, got, v.expected)
		}
	}
}

func TestIgnoreNone(t *testing.T) {
	test := &ignoreTestCase{
		patterns: nil,
		tests: []ignoreTestValue{
			{"file.txt", false, false},
			{"some/deep/path", true, false},
		},
	}
	test.run(t)
}

func TestIgnoreBasenameWildcard(t *testing.T) {
	test := &ignoreTestCase{
		patterns: []string{"*.log"},
		tests: []ignoreTestValue{
			{"debug.log", false, true},
			{"nested/debug.log", false, true},
			{"debug.txt", false, false},
		},
	}
	test.run(t)
}

func TestIgnoreAbsolutePattern(t *testing.T) {
	test := &ignoreTestCase{
		patterns: []string{"/build"},
		tests: []ignoreTestValue{
			{"build", true, true},
			{"nested/build", true, false},
		},
	}
	test.run(t)
}

func TestIgnoreDirectoryOnly(t *testing.T) {
	test := &ignoreTestCase{
		patterns: []string{"vendor/"},
		tests: []ignoreTestValue{
			{"vendor", true, true},
			{"vendor", false, false},
		},
	}
	test.run(t)
}

func TestIgnoreNegation(t *testing.T) {
	test := &ignoreTestCase{
		patterns: []string{"*.log", "!keep.log"},
		tests: []ignoreTestValue{
			{"debug.log", false, true},
			{"keep.log", false, false},
		},
	}
	test.run(t)
}

func TestIgnoreOrderMatters(t *testing.T) {
	test := &ignoreTestCase{
		patterns: []string{"!keep.log", "*.log"},
		tests: []ignoreTestValue{
			{"keep.log", false, true},
		},
	}
	test.run(t)
}

func TestIgnoreInvalidPattern(t *testing.T) {
	if Valid("") {
		t.Error("empty pattern should be invalid")
	}
	if Valid("/") {
		t.Error("root pattern should be invalid")
	}
	if _, err := New([]string{""}); err == nil {
		t.Error("expected error constructing matcher from invalid pattern")
	}
}
