// Package utils holds small helpers shared across the Mythos pipeline:
// position-carrying errors and YAML-driven test fixtures.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mythos-lang/mythos/token"
	"gopkg.in/yaml.v3"
)

// ErrorAt wraps an error with the source token it occurred at, giving
// parse and compile errors a uniform "at line:col: `lexeme`, msg"
// rendering ("at end: msg" at EOF).
type ErrorAt struct {
	Where token.Token
	Err   error
}

func (e ErrorAt) Error() string {
	if e.Where.Kind == token.EOF {
		return fmt.Sprintf("at end: %s", e.Err.Error())
	}
	return fmt.Sprintf("at %d:%d: `%s`, %s", e.Where.Line, e.Where.Column, e.Where.Lexeme, e.Err.Error())
}

func (e ErrorAt) Unwrap() error {
	return e.Err
}

// TestData is one scenario fixture: a source input plus one expected
// rendering per pipeline stage (e.g. "lexer", "parser", "vm").
type TestData struct {
	Label    string
	Enable   bool
	Input    string
	Expected map[string]string
}

// ReadTestData parses a YAML fixture file into scenario test cases,
// dropping any case whose Enable flag is false.
func ReadTestData(s []byte) []TestData {
	var data []TestData
	if err := yaml.Unmarshal(s, &data); err != nil {
		panic(err)
	}

	i := 0
	for _, d := range data {
		if d.Enable {
			data[i] = d
			i++
		}
	}
	data = data[:i]

	return data
}

// FindSourceFiles walks dir looking for .mythos fixtures, for golden-file
// tests over the lexer and parser.
func FindSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".mythos") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
