package classify

import "testing"

func TestClassifyTable(t *testing.T) {
	cases := []struct {
		name     string
		in       Inputs
		expected Class
	}{
		{
			name:     "no change",
			in:       Inputs{LocalPresent: true, BasePresent: true, RemotePresent: true, LocalEqualsBase: true, RemoteEqualsBase: true},
			expected: NoChange,
		},
		{
			name:     "local only",
			in:       Inputs{LocalPresent: true, BasePresent: true, RemotePresent: true, LocalEqualsBase: false, RemoteEqualsBase: true},
			expected: LocalOnly,
		},
		{
			name:     "remote only",
			in:       Inputs{LocalPresent: true, BasePresent: true, RemotePresent: true, LocalEqualsBase: true, RemoteEqualsBase: false},
			expected: RemoteOnly,
		},
		{
			name:     "both changed",
			in:       Inputs{LocalPresent: true, BasePresent: true, RemotePresent: true, LocalEqualsBase: false, RemoteEqualsBase: false},
			expected: BothChanged,
		},
		{
			name:     "remote deleted since base",
			in:       Inputs{LocalPresent: true, BasePresent: true, RemotePresent: false, LocalEqualsBase: true},
			expected: RemoteOnly,
		},
		{
			name:     "local deleted since base",
			in:       Inputs{LocalPresent: false, BasePresent: true, RemotePresent: true, RemoteEqualsBase: true},
			expected: LocalOnly,
		},
		{
			name:     "nothing anywhere",
			in:       Inputs{},
			expected: Missing,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.in); got != c.expected {
				t.Errorf("Classify(%+v) = %v, expected %v", c.in, got, c.expected)
			}
		})
	}
}
