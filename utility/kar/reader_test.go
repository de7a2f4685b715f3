// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/exp/mmap"

	"github.com/devblok/postfx/utility/kar"
)

func writeTestArchive(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "opentest.kar")
	data := buildArchive(t, map[string]string{
		"test/test1.txt": "this is a test",
		"test/test2.txt": "this is another test",
	})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFileAndCompare(f *kar.Reader, expected string, t *testing.T) error {
	result := make([]byte, len(expected))
	n, err := io.ReadFull(f, result)
	if err != nil {
		t.Error(err)
	}
	if n < len(expected) {
		return errors.New("incorrect number of bytes read")
	}

	if strings.Compare(string(result), expected) != 0 {
		return errors.New("test string does not match up")
	}

	return nil
}

func TestOpen(t *testing.T) {
	r, err := os.Open(writeTestArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ar, err := kar.Open(r)
	if err != nil {
		t.Fatal(err)
	}

	if len(ar.List()) != 2 {
		t.Errorf("expected 2 files, got %v", ar.List())
	}
}

func TestOpenmmap(t *testing.T) {
	r, err := mmap.Open(writeTestArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ar, err := kar.Open(r)
	if err != nil {
		t.Fatal(err)
	}

	if f, err := ar.Open("test/test2.txt"); err != nil {
		t.Error(err)
	} else if err := readFileAndCompare(f, "this is another test", t); err != nil {
		t.Error(err)
	}
}

func TestOpenAndReadAll(t *testing.T) {
	r, err := os.Open(writeTestArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ar, err := kar.Open(r)
	if err != nil {
		t.Fatal(err)
	}

	if f, err := ar.ReadAll("test/test1.txt"); err != nil {
		t.Error(err)
	} else if strings.Compare("this is a test", string(f)) != 0 {
		t.Error(errors.New("result is not expected value"))
	}

	if f, err := ar.ReadAll("test/test2.txt"); err != nil {
		t.Error(err)
	} else if strings.Compare("this is another test", string(f)) != 0 {
		t.Error(errors.New("result is not expected value"))
	}
}
