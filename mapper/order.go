package mapper

import (
	"fmt"
	"slices"
	"strings"

	"chain-mapper/internal/diagnostic"
)

// topoSort orders n nodes so that the indices deps(i) yields come before
// i. Among the nodes ready at a time the smallest index goes first. Nodes
// left on or behind a cycle are returned as rest.
func topoSort(n int, deps func(i int) []int) (order, rest []int) {
	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range n {
		for _, d := range deps(i) {
			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order = make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)

		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				k, _ := slices.BinarySearch(ready, j)
				ready = slices.Insert(ready, k, j)
			}
		}
	}

	for i := range n {
		if indeg[i] > 0 {
			rest = append(rest, i)
		}
	}

	return order, rest
}

// modules returns the namespaces the compiled rules run as modules.
func (b *build) modules() []string {
	var uses []string

	for _, r := range b.rules {
		if r.rule.IsExecute() && r.rule.Module != "" && !slices.Contains(uses, r.rule.Module) {
			uses = append(uses, r.rule.Module)
		}
	}

	return uses
}

// moduleOrder orders the namespaces of the compiled specs, every module
// before the specs running it. When namespace is set, uses replaces the
// modules of that namespace.
func (e *Engine) moduleOrder(namespace string, uses []string) ([]string, error) {
	e.mu.RLock()
	graph := make(map[string][]string, len(e.specs)+1)
	for ns, c := range e.specs {
		graph[ns] = c.current().modules()
	}
	e.mu.RUnlock()

	if namespace != "" {
		graph[namespace] = uses
	}

	names := make([]string, 0, len(graph))
	for ns := range graph {
		names = append(names, ns)
	}

	slices.Sort(names)

	pos := make(map[string]int, len(names))
	for i, ns := range names {
		pos[ns] = i
	}

	order, rest := topoSort(len(names), func(i int) []int {
		var deps []int

		for _, m := range graph[names[i]] {
			if j, ok := pos[m]; ok {
				deps = append(deps, j)
			}
		}

		return deps
	})

	if len(rest) > 0 {
		stuck := make([]string, len(rest))
		for i, j := range rest {
			stuck[i] = names[j]
		}

		return nil, fmt.Errorf("module cycle: %s cannot be ordered", strings.Join(stuck, ", "))
	}

	sorted := make([]string, len(order))
	for i, j := range order {
		sorted[i] = names[j]
	}

	return sorted, nil
}

// Order returns the namespaces of the compiled specs, every module before
// the specs running it.
func (e *Engine) Order() ([]string, error) {
	return e.moduleOrder("", nil)
}

// RedeployAll redeploys every compiled spec, modules first. It stops at the
// first spec that fails to compile; the reports of the specs redeployed so
// far are returned with the error.
func (e *Engine) RedeployAll() ([]*diagnostic.Report, error) {
	order, err := e.Order()
	if err != nil {
		return nil, err
	}

	reports := make([]*diagnostic.Report, 0, len(order))

	for _, ns := range order {
		c, ok := e.Spec(ns)
		if !ok {
			continue
		}

		report, err := c.Redeploy()
		if err != nil {
			return reports, err
		}

		reports = append(reports, report)
	}

	return reports, nil
}
