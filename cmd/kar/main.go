// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/postfx/utility/kar"
)

var (
	author   = flag.String("author", currentUserName(), "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the archive given")
	list     = flag.String("l", "", "List the files of the archive given")
	compress = flag.String("c", "", "Compress the given file/folder")
	dstFile  = flag.String("f", "out.kar", "Destination file")
	dstDir   = flag.String("d", ".", "Destination folder when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func currentUserName() string {
	u, err := user.Current()
	if err != nil || u.Name == "" {
		return "unknown"
	}
	return u.Name
}

func main() {
	os.Exit(main1())
}

func main1() int {
	flag.Parse()
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, op := range []string{*extract, *list, *compress} {
		if op != "" {
			ops++
		}
	}

	var err error
	switch {
	case ops > 1:
		err = errors.New("only one operation at a time")
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *list != "":
		err = listFiles(*list)
	case *extract != "":
		err = extractFiles(*extract, *dstDir)
	default:
		flag.PrintDefaults()
		return 2
	}

	if err != nil {
		log.Error(err)
		return 1
	}
	return 0
}

func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	if err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, ftc := range filesToCompress {
		name, err := filepath.Rel(src, ftc)
		if err != nil || name == "." {
			name = filepath.Base(ftc)
		}
		if err := addFile(karBuilder, filepath.ToSlash(name), ftc); err != nil {
			return err
		}
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := karBuilder.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return errors.Wrap(err, "kar.WriteTo()")
	}

	log.WithFields(log.Fields{
		"files": karBuilder.Len(),
		"bytes": written,
	}).Info("archive written to " + dst)
	return nil
}

func addFile(b *kar.Builder, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return errors.Wrap(b.Add(name, f), "kar.Add(): "+name)
}

func openArchive(path string) (*kar.Archive, io.Closer, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, errors.Wrap(err, path)
	}
	return ar, r, nil
}

func listFiles(path string) error {
	ar, closer, err := openArchive(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	header := ar.Header()
	fmt.Printf("author: %s\nversion: %d\ncreated: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).UTC().Format(time.RFC3339))
	for _, name := range ar.List() {
		e, _ := ar.Stat(name)
		fmt.Printf("%s\t%d\n", name, e.Size)
	}
	return nil
}

func extractFiles(path, dst string) error {
	ar, closer, err := openArchive(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	for _, name := range ar.List() {
		target := filepath.Join(dst, filepath.FromSlash(name))
		if rel, err := filepath.Rel(dst, target); err != nil || strings.HasPrefix(rel, "..") {
			return errors.Errorf("%s: file escapes the destination", name)
		}
		if err := extractFile(ar, name, target); err != nil {
			return err
		}
		log.Debug("extracted " + name)
	}
	log.WithField("files", len(ar.List())).Info("archive extracted to " + dst)
	return nil
}

func extractFile(ar *kar.Archive, name, target string) error {
	r, err := ar.Open(name)
	if err != nil {
		return errors.Wrap(err, name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, name)
	}
	if n != r.Size() {
		return errors.Wrap(kar.ErrFileFormat, name)
	}
	return nil
}
