package main

import (
	"fmt"

	"github.com/tdewolff/opentype"
	"github.com/tdewolff/opentype/collection"
)

type Match struct {
	Dir       string `short:"d" desc:"Font directory, uses the system fonts if not set"`
	Subfamily string `short:"s" desc:"Requested subfamily, eg. SemiBold Italic"`
	Verbose   bool   `short:"v" desc:"Trace indexing and loading of font files"`
	Family    string `index:"0" desc:"Font family"`
}

func (cmd *Match) Run() error {
	c, err := newCollection(cmd.Dir, cmd.Verbose)
	if err != nil {
		return err
	}

	requested := collection.ParseSubfamily(cmd.Subfamily)
	sub, ok := c.Lookup(cmd.Family, requested)
	if !ok {
		return fmt.Errorf("font family %s not found", cmd.Family)
	}
	f, err := c.Font(cmd.Family, sub)
	if err != nil {
		return err
	}

	fmt.Printf("Requested: %s %v\n", cmd.Family, requested)
	fmt.Printf("Matched: %s %v (distance %d)\n", cmd.Family, sub, requested.Distance(sub))
	if name := f.Name(opentype.NameFull); name != "" {
		fmt.Printf("Full name: %s\n", name)
	}
	fmt.Printf("Monospaced: %v\n", c.IsMonospaced(cmd.Family, sub))
	return nil
}
