package handlers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/validation"
)

// expenseCategories are offered on the income page; categories already in
// the payload are shown too.
var expenseCategories = []string{"advertising", "supplies", "vehicle", "telephone", "rent", "other"}

// pageField is one input of a step page. Name is the dotted payload path,
// which is also the key of its violations.
type pageField struct {
	Name    string
	Label   string
	Type    string // text, answer or check
	Value   string
	Checked bool
	Error   string
}

type pageSection struct {
	Name   string
	Title  string
	OK     bool
	Fields []pageField
}

var (
	answerType    = reflect.TypeOf(intake.Answer(""))
	dependantType = reflect.TypeOf(intake.Dependant{})
)

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

// sectionValue returns the struct of form tagged with the section name.
func sectionValue(form intake.Form, section string) (reflect.Value, bool) {
	v := reflect.ValueOf(form)
	for i := 0; i < v.NumField(); i++ {
		if jsonName(v.Type().Field(i)) == section {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// buildSections flattens the sections of a step into page inputs, with
// localized labels and the message of the first violation of each input.
func buildSections(lang string, sections []string, form intake.Form, vs validation.Violations) []pageSection {
	errs := map[string]string{}
	for _, v := range vs {
		if _, seen := errs[v.Key()]; !seen {
			errs[v.Key()] = intake.Message(lang, v)
		}
	}
	summary := intake.Summary(sections, form)
	out := make([]pageSection, 0, len(sections))
	for i, name := range sections {
		sv, ok := sectionValue(form, name)
		if !ok {
			continue
		}
		ps := pageSection{Name: name, Title: i18n.T(lang, "section."+name), OK: summary[i].OK}
		ps.Fields = flatten(lang, name, "", sv)
		for j := range ps.Fields {
			ps.Fields[j].Error = errs[ps.Fields[j].Name]
		}
		out = append(out, ps)
	}
	return out
}

func flatten(lang, section, prefix string, v reflect.Value) []pageField {
	var out []pageField
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		field := prefix + jsonName(sf)
		label := intake.Label(lang, validation.Violation{Section: section, Field: field})
		name := section + "." + field
		switch {
		case sf.Type == answerType:
			out = append(out, pageField{Name: name, Label: label, Type: "answer", Value: string(intake.ParseAnswer(fv.String()))})
		case sf.Type.Kind() == reflect.Bool:
			out = append(out, pageField{Name: name, Label: label, Type: "check", Checked: fv.Bool()})
		case sf.Type.Kind() == reflect.String:
			out = append(out, pageField{Name: name, Label: label, Type: "text", Value: fv.String()})
		case sf.Type.Kind() == reflect.Slice && sf.Type.Elem() == dependantType:
			// One spare row lets the visitor add a dependant.
			n := fv.Len()
			for row := 0; row <= n; row++ {
				item := reflect.New(dependantType).Elem()
				if row < n {
					item = fv.Index(row)
				}
				out = append(out, flatten(lang, section, fmt.Sprintf("%s.%d.", field, row), item)...)
			}
		case sf.Type.Kind() == reflect.Map:
			cats := append([]string(nil), expenseCategories...)
			for _, k := range fv.MapKeys() {
				if !contains(cats, k.String()) {
					cats = append(cats, k.String())
				}
			}
			for _, c := range cats {
				val := ""
				if mv := fv.MapIndex(reflect.ValueOf(c)); mv.IsValid() {
					val = mv.String()
				}
				f := field + "." + c
				out = append(out, pageField{
					Name:  section + "." + f,
					Label: intake.Label(lang, validation.Violation{Section: section, Field: f}),
					Type:  "text",
					Value: val,
				})
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// formPatch turns posted inputs named by dotted payload paths into a JSON
// merge patch. Only known sections are kept. Numbered groups become arrays
// and rows left entirely blank are dropped. When an input is repeated the
// last value wins, so a checkbox can follow a hidden "false".
func formPatch(values url.Values) ([]byte, bool) {
	root := map[string]any{}
	for key, vals := range values {
		parts := strings.Split(key, ".")
		if len(parts) < 2 || !intake.KnownSection(parts[0]) || len(vals) == 0 {
			continue
		}
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = strings.TrimSpace(vals[len(vals)-1])
	}
	if len(root) == 0 {
		return nil, false
	}
	b, err := json.Marshal(arrays(root))
	if err != nil {
		return nil, false
	}
	return b, true
}

// arrays converts maps keyed only by indexes into ordered slices.
func arrays(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		m[k] = arrays(child)
	}
	if len(m) == 0 {
		return m
	}
	idx := make([]int, 0, len(m))
	for k := range m {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 {
			return m
		}
		idx = append(idx, n)
	}
	sort.Ints(idx)
	rows := make([]any, 0, len(idx))
	for _, n := range idx {
		row := m[strconv.Itoa(n)]
		if blank(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func blank(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case map[string]any:
		for _, c := range x {
			if !blank(c) {
				return false
			}
		}
		return true
	}
	return false
}
