package main

import (
	"fmt"
	"strings"

	"github.com/tdewolff/opentype/collection"
)

type List struct {
	Dir     string `short:"d" desc:"Font directory, uses the system fonts if not set"`
	Verbose bool   `short:"v" desc:"Trace indexing of font files"`
}

// newCollection indexes a directory or the system fonts.
func newCollection(dir string, trace bool) (*collection.Collection, error) {
	if trace {
		verbose()
	}

	c := collection.New(collection.Options{})
	if dir == "" {
		if n := c.AddSystemFonts(collection.SystemFontFiles); n == 0 {
			Warning.Println("no system fonts found")
		}
		return c, nil
	}
	n, err := c.AddDir(dir)
	if err != nil {
		return nil, err
	} else if n == 0 {
		Warning.Printf("no fonts found in %s\n", dir)
	}
	return c, nil
}

func (cmd *List) Run() error {
	c, err := newCollection(cmd.Dir, cmd.Verbose)
	if err != nil {
		return err
	}

	for _, family := range c.Families() {
		subs := []string{}
		for _, sub := range c.Subfamilies(family) {
			name := sub.String()
			if c.IsMonospaced(family, sub) {
				name += " (monospaced)"
			}
			subs = append(subs, name)
		}
		fmt.Printf("%s: %s\n", family, strings.Join(subs, ", "))
	}
	return nil
}
