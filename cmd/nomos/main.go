/*
 * Copyright (c) 2018 XLAB d.o.o
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command nomos runs one of the registered dynamic-SSE experiments
// (spec.md §6): nomos-simplified, mc-odxt, verifiable, or benchmark.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/ZBCccc/nomos/internal/experiment"

	_ "github.com/ZBCccc/nomos/internal/experiments/benchmarkexp"
	_ "github.com/ZBCccc/nomos/internal/experiments/mcodxt"
	_ "github.com/ZBCccc/nomos/internal/experiments/simplified"
	_ "github.com/ZBCccc/nomos/internal/experiments/verifiable"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("nomos", flag.ContinueOnError)
	name := fs.String("experiment", "nomos-simplified", "name of the experiment to run")
	list := fs.Bool("list", false, "list registered experiments and exit")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *list {
		names := experiment.Names()
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(n)
		}
		return 0
	}

	if fs.NArg() > 0 {
		*name = fs.Arg(0)
	}

	exp, err := experiment.Lookup(*name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log.Printf("nomos: running experiment %q", exp.Name())
	if err := experiment.Run(exp); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Printf("nomos: experiment %q completed", exp.Name())
	return 0
}
