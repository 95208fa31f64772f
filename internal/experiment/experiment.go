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

// Package experiment is the CLI's registry of runnable scenarios
// (spec.md §6): a small Experiment contract plus a name-keyed registry
// the cmd/nomos binary dispatches argv[1] through.
package experiment

import "fmt"

// Experiment is one named, runnable scenario. Setup/Teardown model the
// source's global_init/global_clean lifecycle (spec.md §5); in this
// Go binding the pairing runtime needs no process-wide init, so most
// experiments' Setup/Teardown are no-ops beyond allocating their own
// Gatekeeper/Server/Client instances.
type Experiment interface {
	Name() string
	Setup() error
	Run() error
	Teardown() error
}

var registry = make(map[string]func() Experiment)

// Register adds name to the registry. Intended to be called from an
// experiment package's init().
func Register(name string, factory func() Experiment) {
	registry[name] = factory
}

// Lookup returns a fresh Experiment for name, or an error if name was
// never registered.
func Lookup(name string) (Experiment, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("experiment: unknown experiment %q", name)
	}
	return factory(), nil
}

// Names returns every registered experiment name.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Run drives an Experiment through its full Setup/Run/Teardown
// lifecycle, always calling Teardown even if Run fails, and returns
// the first error encountered (spec.md §6: "Exit code 0 on success, 1
// on any setup/run failure").
func Run(exp Experiment) error {
	if err := exp.Setup(); err != nil {
		return fmt.Errorf("experiment %q: setup: %w", exp.Name(), err)
	}
	runErr := exp.Run()
	tdErr := exp.Teardown()
	if runErr != nil {
		return fmt.Errorf("experiment %q: run: %w", exp.Name(), runErr)
	}
	if tdErr != nil {
		return fmt.Errorf("experiment %q: teardown: %w", exp.Name(), tdErr)
	}
	return nil
}
