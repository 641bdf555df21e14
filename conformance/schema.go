package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single program run within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Source      string      `yaml:"source"`
	Input       string      `yaml:"input,omitempty"`
	EOF         *int        `yaml:"eof,omitempty"`
	MemorySize  int         `yaml:"memory_size,omitempty"`
	MaxSteps    int         `yaml:"max_steps,omitempty"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what a run must produce. Unset fields are not checked.
type Expectation struct {
	Output      *string     `yaml:"output,omitempty"`       // exact output text
	OutputBytes []int       `yaml:"output_bytes,omitempty"` // exact output bytes
	Memory      map[int]int `yaml:"memory,omitempty"`       // cell index -> value
	DP          *int        `yaml:"dp,omitempty"`
	Error       string      `yaml:"error,omitempty"` // decode, unbalanced, undefined_label, step_limit
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}

	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}
