// Package conformance replays YAML-described EBF programs against the
// interpreter and checks that the lowered form agrees with it.
package conformance

import (
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite TestSuite
	Test  TestCase
}

// LoadAllTests walks fsys and loads every test case of every .yaml file
func LoadAllTests(fsys fs.FS) ([]LoadedTest, error) {
	var loaded []LoadedTest

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || path.Ext(p) != ".yaml" {
			return nil
		}

		tests, err := loadTestFile(fsys, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		loaded = append(loaded, tests...)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return loaded, nil
}

// loadTestFile parses a single YAML file and returns all test cases
func loadTestFile(fsys fs.FS, p string) ([]LoadedTest, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}

	var tests []LoadedTest
	for _, test := range suite.Tests {
		tests = append(tests, LoadedTest{
			File:  p,
			Suite: suite,
			Test:  test,
		})
	}

	return tests, nil
}
