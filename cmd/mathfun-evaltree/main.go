// Command mathfun-evaltree evaluates a mathfun expression by walking
// the parsed AST directly (no optimizer, no bytecode), demonstrating
// the round-trip property against mathfun-eval's compiled path: both
// must agree on every well-typed input.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/panzi/mathfun-sub000/pkg/mathfun"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/source"
)

func main() {
	argsFlag := flag.String("args", "", "comma-separated name=value bindings, e.g. -args x=1,y=2")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mathfun-evaltree -args x=1,y=2 <expression>")
		os.Exit(64)
	}

	argNames, argVals, err := parseBindings(*argsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mathfun-evaltree: %s\n", err)
		os.Exit(64)
	}

	result, err := mathfun.Run(nil, argNames, source.NewEval(flag.Arg(0)), argVals)
	if err != nil {
		mferrors.Log(os.Stderr, err)
		os.Exit(70)
	}
	fmt.Println(result)
}

func parseBindings(bindings string) ([]string, []float64, error) {
	bindings = strings.TrimSpace(bindings)
	if bindings == "" {
		return nil, nil, nil
	}
	parts := strings.Split(bindings, ",")
	argNames := make([]string, len(parts))
	argVals := make([]float64, len(parts))
	for i, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			return nil, nil, fmt.Errorf("invalid binding %q, expected name=value", part)
		}
		name := strings.TrimSpace(kv[0])
		val, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid value in binding %q: %w", part, err)
		}
		argNames[i] = name
		argVals[i] = val
	}
	return argNames, argVals, nil
}
