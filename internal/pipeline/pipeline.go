// Package pipeline runs declared build tasks, skipping those whose input
// files have the same content as on their last run.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const CurrentVersion = 1

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrCycle       = errors.New("task dependency cycle")
)

// Task is one step of the build.
type Task struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Pre         []string `yaml:"pre,omitempty"`
	// Sources are files or glob patterns whose content decides whether the
	// task must run again.
	Sources []string `yaml:"sources,omitempty"`
	// Requires are files that must exist before the task can run at all.
	Requires []string `yaml:"requires,omitempty"`
	Targets  []string `yaml:"targets,omitempty"`
	Commands []string `yaml:"commands,omitempty"`
}

type Pipeline struct {
	Version int    `yaml:"version"`
	Tasks   []Task `yaml:"tasks"`

	byName map[string]int
}

// Parse decodes and validates a pipeline definition.
func Parse(data []byte) (*Pipeline, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("pipeline: definition is empty")
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("pipeline: decode: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads and parses a pipeline file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Clean(path), err)
	}
	return p, nil
}

// Validate checks names, references and the absence of cycles, and builds
// the name index.
func (p *Pipeline) Validate() error {
	if p.Version == 0 {
		p.Version = CurrentVersion
	}
	if p.Version != CurrentVersion {
		return fmt.Errorf("pipeline: unsupported version %d", p.Version)
	}
	if len(p.Tasks) == 0 {
		return errors.New("pipeline: no tasks declared")
	}

	p.byName = make(map[string]int, len(p.Tasks))
	for i, t := range p.Tasks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("pipeline: task %d has no name", i+1)
		}
		if name != t.Name {
			return fmt.Errorf("pipeline: task name %q has surrounding spaces", t.Name)
		}
		if _, dup := p.byName[name]; dup {
			return fmt.Errorf("pipeline: task %q declared twice", name)
		}
		p.byName[name] = i
	}

	for _, t := range p.Tasks {
		for _, pre := range t.Pre {
			if _, ok := p.byName[pre]; !ok {
				return fmt.Errorf("pipeline: task %q: pre %q: %w", t.Name, pre, ErrUnknownTask)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(p.Tasks))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("pipeline: %w: %s", ErrCycle, strings.Join(append(path, name), " -> "))
		case done:
			return nil
		}
		state[name] = visiting
		for _, pre := range p.Tasks[p.byName[name]].Pre {
			if err := visit(pre, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	for _, t := range p.Tasks {
		if err := visit(t.Name, nil); err != nil {
			return err
		}
	}
	return nil
}

// Task looks a task up by name.
func (p *Pipeline) Task(name string) (Task, error) {
	i, ok := p.byName[name]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return p.Tasks[i], nil
}

func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		names[i] = t.Name
	}
	return names
}

// Order returns name and everything it depends on, prerequisites first,
// each task once.
func (p *Pipeline) Order(name string) ([]string, error) {
	if _, err := p.Task(name); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var order []string
	var walk func(string)
	walk = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, pre := range p.Tasks[p.byName[n]].Pre {
			walk(pre)
		}
		order = append(order, n)
	}
	walk(name)
	return order, nil
}

// Targets lists every declared target once, labelled with its task, in
// declaration order.
func (p *Pipeline) Targets() []Entry {
	seen := make(map[string]bool)
	var out []Entry
	for _, t := range p.Tasks {
		for _, target := range t.Targets {
			if seen[target] {
				continue
			}
			seen[target] = true
			out = append(out, Entry{Path: target, Label: t.Name})
		}
	}
	return out
}

// ExpandSources resolves glob patterns. A pattern that matches nothing is
// kept literally so that the file showing up later is noticed.
func ExpandSources(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, pat := range patterns {
		matches, err := filepath.Glob(pat)
		if err != nil {
			return nil, fmt.Errorf("source pattern %q: %w", pat, err)
		}
		if len(matches) == 0 {
			add(pat)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}
