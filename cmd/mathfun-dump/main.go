// Command mathfun-dump compiles a mathfun expression and prints its
// disassembled bytecode. Flag handling follows paserati's cmd/paserati
// main.go (flag.String/flag.Bool, os.Exit(64) on usage error).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/panzi/mathfun-sub000/pkg/mathfun"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/source"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

func main() {
	argsFlag := flag.String("args", "", "comma-separated argument names, e.g. -args x,y")
	fileFlag := flag.String("file", "", "read the expression from this file instead of the command line")
	flag.Parse()

	var expr string
	if *fileFlag != "" {
		content, err := os.ReadFile(*fileFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mathfun-dump: %s\n", err)
			os.Exit(70)
		}
		expr = string(content)
	} else if flag.NArg() == 1 {
		expr = flag.Arg(0)
	} else {
		fmt.Fprintln(os.Stderr, "usage: mathfun-dump -args x,y <expression>")
		os.Exit(64)
	}

	var argNames []string
	if *argsFlag != "" {
		argNames = strings.Split(*argsFlag, ",")
	}

	var src *source.File
	if *fileFlag != "" {
		src = source.FromFile(*fileFlag, expr)
	} else {
		src = source.NewEval(expr)
	}

	fn, err := mathfun.Compile(nil, argNames, src)
	if err != nil {
		mferrors.Log(os.Stderr, err)
		os.Exit(70)
	}

	fmt.Print(fn.Disassemble(src.Name))

	p := message.NewPrinter(message.MatchLanguage("en"))
	p.Printf("framesize: %v, argc: %v\n", number.Decimal(fn.FrameSize()), number.Decimal(fn.Argc()))
}
