package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CantTolerateYou/ustx"
)

func TestTemplate(t *testing.T) {
	tmpl, err := parseTemplate(`{{.Index}} {{.Note.Lyric | upper}} {{.Note.Position}}+{{.Note.Duration}}{{"\n"}}`)
	if err != nil {
		t.Fatalf("parseTemplate failed: %v", err)
	}
	note := ustx.NewNote()
	note.Lyric, note.Position, note.Duration = "ka", 480, 240
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{File: "a.json", Index: 3, Note: note}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if buf.String() != "3 KA 480+240\n" {
		t.Fatalf("unexpected template output %q", buf.String())
	}
}

func TestNoteName(t *testing.T) {
	if n := noteName(60); !strings.HasPrefix(n, "C") || !strings.HasSuffix(n, "4") {
		t.Fatalf("note 60 should be C4, got %v", n)
	}
	if n := noteName(200); n != "#200" {
		t.Fatalf("out of range notes should be written as numbers, got %v", n)
	}
}

func TestDescriptorTable(t *testing.T) {
	table := descriptorTable(ustx.DefaultExpressionRegistry())
	lines := strings.Split(strings.TrimSpace(table), "\n")
	if len(lines) != 9 {
		t.Fatalf("expected a header and 8 rows, got %q", table)
	}
	if fields := strings.Fields(lines[1]); len(fields) != 5 || fields[0] != "vel" || fields[1] != "Velocity" || fields[3] != "200" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestReadNotes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.yml")
	if err := os.WriteFile(path, []byte("pos: 10\ndur: 20\nnum: 60\nlrc: a\nexp:\n  vel: 90\n"), 0644); err != nil {
		t.Fatalf("cannot write test file: %v", err)
	}
	notes, err := readNotes(path, ustx.DefaultExpressionRegistry())
	if err != nil {
		t.Fatalf("readNotes failed: %v", err)
	}
	if len(notes) != 1 || notes[0].Duration != 20 || notes[0].Expressions["vel"].Value != 90 {
		t.Fatalf("unexpected notes %+v", notes)
	}
}
