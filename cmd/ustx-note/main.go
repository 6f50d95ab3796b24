package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/CantTolerateYou/ustx"
	"github.com/CantTolerateYou/ustx/codec"
	"github.com/CantTolerateYou/ustx/midiimport"
	"github.com/CantTolerateYou/ustx/version"
)

func main() {
	safe := flag.Bool("n", false, "Never overwrite files; if file already exists and would be overwritten, give an error.")
	list := flag.Bool("l", false, "Do not write files; just list files that would change instead.")
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	jsonOut := flag.Bool("j", false, "Output the notes as .json files.")
	yamlOut := flag.Bool("y", false, "Output the notes as .yml files.")
	bind := flag.Bool("b", false, "Bind the expressions of the notes and warn about expressions with no descriptor.")
	descriptors := flag.Bool("d", false, "Print the known expression descriptors and exit.")
	expressionsPath := flag.String("x", "", "Read additional expression descriptors from this .yml file.")
	tmplText := flag.String("t", "", "Print each note using this text/template instead of writing files. Prefix with @ to read the template from a file.")
	outPath := flag.String("o", "", "Directory or filename where to write the notes. Extension is ignored. Directory and its parents are created if needed. By default, everything is placed in the current working directory.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	registry, err := loadRegistry(*expressionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load expression descriptors: %v\n", err)
		os.Exit(1)
	}
	if *descriptors {
		fmt.Print(descriptorTable(registry))
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	var tmpl *template.Template
	if *tmplText != "" {
		tmpl, err = parseTemplate(*tmplText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not parse template: %v\n", err)
			os.Exit(1)
		}
	}
	output := func(filename string, extension string, contents []byte) error {
		if *stdout {
			fmt.Println(string(contents))
			return nil
		}
		_, name := filepath.Split(filename)
		var dir string
		if *outPath != "" {
			// check if it's an already existing directory and the user just forgot trailing slash
			if info, err := os.Stat(*outPath); err == nil && info.IsDir() {
				dir = *outPath
			} else {
				outdir, outname := filepath.Split(*outPath)
				if outdir != "" {
					dir = outdir
				}
				if outname != "" {
					name = outname
				}
			}
		}
		if dir == "" {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
			}
		}
		name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
		f := filepath.Join(dir, name)
		original, err := os.ReadFile(f)
		if err == nil {
			if bytes.Equal(original, contents) {
				return nil // no need to update
			}
			if !*list && *safe {
				return fmt.Errorf("file %v would be overwritten", f)
			}
		}
		if *list {
			fmt.Println(f)
			return nil
		}
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
		if err := os.WriteFile(f, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", f, err)
		}
		return nil
	}
	process := func(filename string) error {
		notes, err := readNotes(filename, registry)
		if err != nil {
			return err
		}
		for i, note := range notes {
			name := filename
			if len(notes) > 1 {
				name = fmt.Sprintf("%v_%03d%v", strings.TrimSuffix(filename, filepath.Ext(filename)), i, filepath.Ext(filename))
			}
			if *bind {
				for _, k := range note.BindExpressions(registry) {
					fmt.Fprintf(os.Stderr, "%v: expression %q has no descriptor\n", name, k)
				}
			}
			if err := note.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "%v: %v\n", name, err)
			}
			if tmpl != nil {
				var buf bytes.Buffer
				if err := tmpl.Execute(&buf, templateData{File: filename, Index: i, Note: note}); err != nil {
					return fmt.Errorf("could not execute template: %v", err)
				}
				fmt.Print(buf.String())
				continue
			}
			if *jsonOut {
				b, err := codec.MarshalNote(note)
				if err != nil {
					return fmt.Errorf("could not marshal the note as json: %v", err)
				}
				if err := output(name, ".json", b); err != nil {
					return fmt.Errorf("error outputting json file: %v", err)
				}
			}
			if *yamlOut {
				b, err := codec.MarshalNoteYAML(note)
				if err != nil {
					return fmt.Errorf("could not marshal the note as yml: %v", err)
				}
				if err := output(name, ".yml", b); err != nil {
					return fmt.Errorf("error outputting yml file: %v", err)
				}
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		files := []string{param}
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			files = nil
			for _, pattern := range []string{"*.json", "*.yml", "*.mid"} {
				matches, err := filepath.Glob(filepath.Join(param, pattern))
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not glob the path %v for %v files: %v\n", param, pattern, err)
					retval = 1
					continue
				}
				files = append(files, matches...)
			}
		}
		for _, file := range files {
			if err := process(file); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

// readNotes reads a single note from a .json or .yml file, or all the notes of
// a .mid file.
func readNotes(filename string, registry *ustx.ExpressionRegistry) ([]*ustx.Note, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mid", ".midi":
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("could not open file %v: %v", filename, err)
		}
		defer f.Close()
		return midiimport.Read(f, midiimport.Options{Registry: registry})
	}
	inputBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read file %v: %v", filename, err)
	}
	note, err := codec.ReadNote(inputBytes)
	if err != nil {
		return nil, err
	}
	return []*ustx.Note{note}, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "ustx note tool. Input .json, .yml or .mid notes, outputs the notes as .json or .yml, or prints them with a template.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
