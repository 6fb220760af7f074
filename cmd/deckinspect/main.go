// Command deckinspect prints what a .pptx contains: slide count, text runs,
// speaker notes and media.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/VantageDataChat/autodeck/pptx"
)

func main() {
	asJSON := flag.Bool("json", false, "print the summary as JSON")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: deckinspect [-json] deck.pptx")
		os.Exit(2)
	}

	sum, err := pptx.InspectFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sum); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%d slides, %.2f x %.2f in, %d charts, %d media\n",
		sum.Slides, pptx.EMUToInch(sum.Width), pptx.EMUToInch(sum.Height), sum.Charts, len(sum.Media))
	for i := 0; i < sum.Slides; i++ {
		fmt.Printf("slide %d:\n", i+1)
		if i < len(sum.Texts) {
			for _, t := range sum.Texts[i] {
				fmt.Printf("  %s\n", t)
			}
		}
		if i < len(sum.Notes) && sum.Notes[i] != "" {
			fmt.Printf("  notes: %s\n", strings.ReplaceAll(sum.Notes[i], "\n", " "))
		}
	}
}
