// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/devblok/postfx/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(t testing.TB, files map[string]string) []byte {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	for name, contents := range files {
		if err := builder.Add(name, strings.NewReader(contents)); err != nil {
			t.Fatal(err)
		}
	}

	buf := bytes.NewBuffer([]byte{})
	written, err := builder.WriteTo(buf)
	if err != nil {
		t.Fatal(err)
	}
	if written != int64(buf.Len()) {
		t.Errorf("written %d, buffer holds %d", written, buf.Len())
	}
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"test":  testString1,
		"test2": testString2,
	})

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	f, err := ar.Open("test2")
	if err != nil {
		t.Fatal(err)
	}
	if f.Size() != int64(len(testString2)) {
		t.Errorf("size %d, expected %d", f.Size(), len(testString2))
	}

	result := make([]byte, len(testString2))
	if _, err := io.ReadFull(f, result); err != nil {
		t.Error(err)
	}
	if strings.Compare(string(result), testString2) != 0 {
		t.Error("test string does not match up")
	}
}

func TestCreateAndReadAll(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"test":  testString1,
		"test2": testString2,
		"empty": "",
	})

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	for name, expected := range map[string]string{
		"test":  testString1,
		"test2": testString2,
		"empty": "",
	} {
		f, err := ar.ReadAll(name)
		if err != nil {
			t.Error(err)
		}
		if strings.Compare(string(f), expected) != 0 {
			t.Errorf("%s: test string does not match up", name)
		}
	}
}

func TestHeaderAndList(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"shaders/b.glsl": "b",
		"shaders/a.glsl": "a",
		"cube.obj":       "v 0 0 0",
	})

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if ar.Header().Author != "devblok" || ar.Header().Version != 1 {
		t.Errorf("unexpected header %+v", ar.Header())
	}

	names := ar.List()
	expected := []string{"cube.obj", "shaders/a.glsl", "shaders/b.glsl"}
	if strings.Join(names, ",") != strings.Join(expected, ",") {
		t.Errorf("listed %v, expected %v", names, expected)
	}

	var offset int64
	for _, e := range ar.Header().Index {
		if e.Offset != offset {
			t.Errorf("%s: offset %d, expected %d", e.Name, e.Offset, offset)
		}
		offset += e.CompressedSize
	}
}

func TestMissingFile(t *testing.T) {
	data := buildArchive(t, map[string]string{"test": testString1})

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ar.ReadAll("nope"); err != kar.ErrNoFile {
		t.Errorf("expected ErrNoFile, got %v", err)
	}
	if _, ok := ar.Stat("nope"); ok {
		t.Error("stat found a missing file")
	}
}

func TestNotAnArchive(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("PK\x03\x04 definitely a zip"),
		[]byte("KA"),
		append([]byte(kar.Magic), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f),
		append([]byte(kar.Magic), 4, 0, 0, 0, 0, 0, 0, 0, 'j', 'u', 'n', 'k'),
	} {
		if _, err := kar.Open(bytes.NewReader(data)); err != kar.ErrFileFormat {
			t.Errorf("%q: expected ErrFileFormat, got %v", data, err)
		}
	}
}

func BenchmarkReadAll(b *testing.B) {
	payload := strings.Repeat(testString2, 4096)
	data := buildArchive(b, map[string]string{"payload": payload})
	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for idx := 0; idx < b.N; idx++ {
		if _, err := ar.ReadAll("payload"); err != nil {
			b.Fatal(err)
		}
	}
}
