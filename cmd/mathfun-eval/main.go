// Command mathfun-eval evaluates a mathfun expression once, or drops
// into an interactive REPL when no expression is given. REPL handling
// is grounded on launix-de-memcp's scm.Repl (readline.NewEx, a history
// file, ^C as an interrupt prompt rather than a hard exit).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/panzi/mathfun-sub000/pkg/context"
	"github.com/panzi/mathfun-sub000/pkg/mathfun"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/source"
)

func main() {
	exprFlag := flag.String("e", "", "evaluate this expression and exit")
	argsFlag := flag.String("args", "", "comma-separated name=value bindings, e.g. -args x=1,y=2")
	flag.Parse()

	if *exprFlag != "" {
		argNames, argVals, err := parseBindings(*argsFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mathfun-eval: %s\n", err)
			os.Exit(64)
		}
		fn, err := mathfun.Compile(nil, argNames, source.NewEval(*exprFlag))
		if err != nil {
			mferrors.Log(os.Stderr, err)
			os.Exit(70)
		}
		result, err := fn.CallSlice(argVals)
		if err != nil {
			mferrors.Log(os.Stderr, err)
			os.Exit(70)
		}
		fmt.Println(result)
		return
	}

	if flag.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "usage: mathfun-eval -e EXPR -args x=1,y=2  (or no -e for a REPL)")
		os.Exit(64)
	}
	repl()
}

const (
	newPrompt    = "\033[32m>\033[0m "
	resultPrompt = "\033[31m=\033[0m "
)

// repl reads "bindings | expression" lines (e.g. "x=1, y=2 | x + y"), or
// bare expressions when no bindings are needed, and reports structured
// errors with mferrors.Log.
func repl() {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            newPrompt,
		HistoryFile:       ".mathfun-eval-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mathfun-eval: %s\n", err)
		os.Exit(70)
	}
	defer l.Close()
	l.CaptureExitSignal()

	fmt.Println("mathfun-eval (Ctrl+D to exit)")
	ctx := context.New(true)

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "mathfun-eval: %s\n", err)
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		bindings, expr := splitLine(line)
		argNames, argVals, err := parseBindings(bindings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mathfun-eval: %s\n", err)
			continue
		}
		fn, err := mathfun.Compile(ctx, argNames, source.NewRepl(expr))
		if err != nil {
			mferrors.Log(os.Stderr, err)
			continue
		}
		result, err := fn.CallSlice(argVals)
		if err != nil {
			mferrors.Log(os.Stderr, err)
			continue
		}
		fmt.Printf("%s%v\n", resultPrompt, result)
	}
}

// splitLine separates "bindings | expr" into its two halves; a line
// with no "|" is treated as a bare expression with no bindings.
func splitLine(line string) (bindings, expr string) {
	if i := strings.IndexByte(line, '|'); i >= 0 {
		return line[:i], line[i+1:]
	}
	return "", line
}

// parseBindings turns "x=1, y=2" into parallel argNames/argVals slices.
// An empty string yields no arguments.
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
