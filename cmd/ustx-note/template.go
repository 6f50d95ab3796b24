package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"text/template"

	"github.com/Masterminds/sprig"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/CantTolerateYou/ustx"
)

type templateData struct {
	File  string
	Index int
	Note  *ustx.Note
}

// noteName returns the scientific pitch name of a note number, 60 = C4.
func noteName(num int) string {
	if num < 0 || num > 127 {
		return fmt.Sprintf("#%v", num)
	}
	return fmt.Sprintf("%v%v", midi.Note(uint8(num)).Name(), num/12-1)
}

func parseTemplate(text string) (*template.Template, error) {
	if file, ok := strings.CutPrefix(text, "@"); ok {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		text = string(b)
	}
	funcs := sprig.TxtFuncMap()
	funcs["noteName"] = noteName
	return template.New("note").Funcs(funcs).Parse(text)
}

func descriptorTable(r *ustx.ExpressionRegistry) string {
	caser := cases.Title(language.English)
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ABBR\tNAME\tMIN\tMAX\tDEFAULT")
	for _, d := range r.Descriptors() {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", d.Abbr, caser.String(d.Name), d.Min, d.Max, d.DefaultValue)
	}
	w.Flush()
	return sb.String()
}
